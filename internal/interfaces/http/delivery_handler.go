package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/application/dto"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// DeliveryHandler entregas por unidad: despacho, avance y pago (protegido).
type DeliveryHandler struct {
	lifecycle *allocation.UnitLifecycle
	log       *logger.Logger
}

// NewDeliveryHandler construye el handler.
func NewDeliveryHandler(lifecycle *allocation.UnitLifecycle, log *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{lifecycle: lifecycle, log: log}
}

// Dispatch godoc
// @Summary      Despachar la entrega de una salida
// @Tags         deliveries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DispatchDeliveryRequest  true  "withdrawal_id"
// @Success      201   {object}  dto.DeliveryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/deliveries [post]
func (h *DeliveryHandler) Dispatch(c *fiber.Ctx) error {
	var in dto.DispatchDeliveryRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	d, err := h.lifecycle.DispatchDelivery(c.UserContext(), in.WithdrawalID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DeliveryFromEntity(d))
}

// GetByID godoc
// @Summary      Obtener entrega
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la entrega"
// @Success      200  {object}  dto.DeliveryResponse
// @Router       /api/deliveries/{id} [get]
func (h *DeliveryHandler) GetByID(c *fiber.Ctx) error {
	d, err := h.lifecycle.GetDelivery(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.DeliveryFromEntity(d))
}

// Advance godoc
// @Summary      Avanzar el estado de una entrega
// @Description  Solo hacia adelante; COMPLETED y CANCELLED son terminales. CANCELLED exige reason.
// @Tags         deliveries
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la entrega"
// @Param        body  body  dto.AdvanceDeliveryRequest  true  "state, reason"
// @Success      200   {object}  dto.DeliveryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id}/state [post]
func (h *DeliveryHandler) Advance(c *fiber.Ctx) error {
	var in dto.AdvanceDeliveryRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	d, err := h.lifecycle.AdvanceDelivery(c.UserContext(), c.Params("id"), in.State, in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.DeliveryFromEntity(d))
}

// MarkPaid godoc
// @Summary      Marcar entrega como pagada
// @Tags         deliveries
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la entrega"
// @Success      200  {object}  dto.DeliveryResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/deliveries/{id}/paid [post]
func (h *DeliveryHandler) MarkPaid(c *fiber.Ctx) error {
	d, err := h.lifecycle.MarkDeliveryPaid(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.DeliveryFromEntity(d))
}
