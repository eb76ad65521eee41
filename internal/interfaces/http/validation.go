package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/distribucion-api/internal/application/dto"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

// initValidators registra las reglas propias para cantidades decimales.
// decimal.Decimal se lee directo del campo; registrar un CustomTypeFunc que
// devuelva el mismo tipo deja al validador en bucle.
func initValidators() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())
	// Los mensajes usan el nombre JSON del campo.
	vld.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := vld.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && d.IsPositive()
	}); err != nil {
		return nil, fmt.Errorf("registrar positive_decimal: %w", err)
	}
	if err := vld.RegisterValidation("nonnegative_decimal", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && !d.IsNegative()
	}); err != nil {
		return nil, fmt.Errorf("registrar nonnegative_decimal: %w", err)
	}
	return vld, nil
}

// getValidator singleton del validador.
func getValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidators()
	})
	return validate, errValidate
}

// validateStruct devuelve el primer error de validación con un mensaje legible.
func validateStruct(payload any) error {
	vld, err := getValidator()
	if err != nil {
		return err
	}
	if err := vld.Struct(payload); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) && len(ves) > 0 {
			return formatValidationError(ves[0])
		}
		return err
	}
	return nil
}

var validationMessages = map[string]func(field, param string) string{
	"required":            func(f, _ string) string { return fmt.Sprintf("'%s' es requerido", f) },
	"max":                 func(f, p string) string { return fmt.Sprintf("'%s' admite como máximo %s", f, p) },
	"min":                 func(f, p string) string { return fmt.Sprintf("'%s' requiere al menos %s", f, p) },
	"oneof":               func(f, p string) string { return fmt.Sprintf("'%s' debe ser uno de [%s]", f, p) },
	"positive_decimal":    func(f, _ string) string { return fmt.Sprintf("'%s' debe ser mayor que cero", f) },
	"nonnegative_decimal": func(f, _ string) string { return fmt.Sprintf("'%s' no puede ser negativo", f) },
}

func formatValidationError(fe validator.FieldError) error {
	field := fe.Field()
	if msg, ok := validationMessages[fe.Tag()]; ok {
		return errors.New(msg(field, fe.Param()))
	}
	return fmt.Errorf("'%s' no cumple la regla %s", field, fe.Tag())
}

// parsePage lee y valida limit/offset; responde 400 y devuelve false si falla.
func parsePage(c *fiber.Ctx) (dto.PageRequest, bool, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if err := validateStruct(&page); err != nil {
		return page, false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	page.Normalize()
	return page, true, nil
}

// parseBody decodifica y valida el cuerpo; responde 400 y devuelve false si falla.
func parseBody(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	return true, nil
}
