package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/distribucion-api/internal/application/dto"
	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Orden relevante: el primer errors.Is que coincide gana.
var errorMappings = []errorMapping{
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrExceedsAllocation, fiber.StatusConflict, "EXCEEDS_ALLOCATION"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrAlreadyAdmitted, fiber.StatusConflict, "ALREADY_ADMITTED"},
	{domain.ErrHasDependents, fiber.StatusConflict, "HAS_DEPENDENTS"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrNotVerified, fiber.StatusUnprocessableEntity, "NOT_VERIFIED"},
	{domain.ErrNotYetDelivered, fiber.StatusUnprocessableEntity, "NOT_YET_DELIVERED"},
	{domain.ErrMissingEvidence, fiber.StatusBadRequest, "MISSING_EVIDENCE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrStorageUnavailable, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
}

// writeError traduce un error del motor a status + dto.ErrorResponse.
// Los rechazos por capacidad llevan remaining y los de transición current_state.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	body := dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	status := fiber.StatusInternalServerError
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			status, body = m.status, dto.NewErrorResponse(m.code, err)
			break
		}
	}

	if status >= fiber.StatusInternalServerError && log != nil {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error atendiendo petición")
	}
	return c.Status(status).JSON(body)
}
