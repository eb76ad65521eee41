package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/distribucion-api/internal/application/reporting"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// ReportHandler vistas de solo lectura y documentos PDF.
type ReportHandler struct {
	uc   *reporting.ReportingUseCase
	docs *reporting.DocumentsUseCase
	log  *logger.Logger
}

// NewReportHandler construye el handler. docs puede ser nil si no hay generador de PDF.
func NewReportHandler(uc *reporting.ReportingUseCase, docs *reporting.DocumentsUseCase, log *logger.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, docs: docs, log: log}
}

// RootSummary godoc
// @Summary      Resumen de una asignación raíz
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la asignación"
// @Success      200  {object}  dto.RootSummaryDTO
// @Router       /api/reports/allocations/{id} [get]
func (h *ReportHandler) RootSummary(c *fiber.Ctx) error {
	out, err := h.uc.RootSummary(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DistributorDashboard godoc
// @Summary      Totales del distribuidor por tipo de recurso
// @Description  Sin :id usa el distribuidor autenticado.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  false  "ID del distribuidor"
// @Success      200  {object}  dto.DistributorDashboardDTO
// @Router       /api/reports/distributors/{id} [get]
func (h *ReportHandler) DistributorDashboard(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		id = GetActorID(c)
	}
	out, err := h.uc.DistributorDashboard(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// StockSummary godoc
// @Summary      Stock por tipo de recurso
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryDTO
// @Router       /api/reports/stock [get]
func (h *ReportHandler) StockSummary(c *fiber.Ctx) error {
	out, err := h.uc.StockSummary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DeliverySummary godoc
// @Summary      Entregas por estado y pago
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DeliverySummaryDTO
// @Router       /api/reports/deliveries [get]
func (h *ReportHandler) DeliverySummary(c *fiber.Ctx) error {
	out, err := h.uc.DeliverySummary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Overview godoc
// @Summary      Stock y entregas en una sola respuesta
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.OverviewDTO
// @Router       /api/reports/overview [get]
func (h *ReportHandler) Overview(c *fiber.Ctx) error {
	out, err := h.uc.Overview(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// RootStatementPDF godoc
// @Summary      Acta de asignación en PDF
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la asignación"
// @Success      200  {file}  binary
// @Router       /api/allocations/{id}/statement.pdf [get]
func (h *ReportHandler) RootStatementPDF(c *fiber.Ctx) error {
	if h.docs == nil {
		return c.SendStatus(fiber.StatusNotImplemented)
	}
	id := c.Params("id")
	pdf, err := h.docs.RootStatement(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return sendPDF(c, "acta-"+id+".pdf", pdf)
}

// DeliveryNotePDF godoc
// @Summary      Remisión de entrega en PDF
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la entrega"
// @Success      200  {file}  binary
// @Router       /api/deliveries/{id}/note.pdf [get]
func (h *ReportHandler) DeliveryNotePDF(c *fiber.Ctx) error {
	if h.docs == nil {
		return c.SendStatus(fiber.StatusNotImplemented)
	}
	id := c.Params("id")
	pdf, err := h.docs.DeliveryNote(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return sendPDF(c, "remision-"+id+".pdf", pdf)
}

func sendPDF(c *fiber.Ctx, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Send(body)
}
