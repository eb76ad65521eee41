package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/application/dto"
	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// StockHandler lotes de origen, stock de fibra y salidas (protegido).
type StockHandler struct {
	engine *allocation.AllocationEngine
	log    *logger.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(engine *allocation.AllocationEngine, log *logger.Logger) *StockHandler {
	return &StockHandler{engine: engine, log: log}
}

// UpsertSourceBatch godoc
// @Summary      Sincronizar lote de origen y su verificación
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.SourceBatchRequest  true  "resource_kind, quantity, verification_state"
// @Success      200   {object}  dto.SourceBatchResponse
// @Router       /api/source-batches/{id} [put]
func (h *StockHandler) UpsertSourceBatch(c *fiber.Ctx) error {
	var in dto.SourceBatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	qty, err := quantity.New(in.Quantity)
	if err != nil {
		return writeError(c, h.log, domain.ErrInvalidInput)
	}
	b := &entity.SourceBatch{
		ID:                c.Params("id"),
		ResourceKind:      in.ResourceKind,
		Quantity:          qty,
		VerificationState: in.VerificationState,
	}
	if err := h.engine.UpsertSourceBatch(c.UserContext(), b); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SourceBatchFromEntity(b))
}

// GetSourceBatch godoc
// @Summary      Obtener lote de origen
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.SourceBatchResponse
// @Router       /api/source-batches/{id} [get]
func (h *StockHandler) GetSourceBatch(c *fiber.Ctx) error {
	b, err := h.engine.GetSourceBatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SourceBatchFromEntity(b))
}

// Admit godoc
// @Summary      Ingresar lote verificado a stock
// @Description  Un lote se ingresa una sola vez (409 ALREADY_ADMITTED); quantity 0 toma la del lote.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdmitBatchRequest  true  "source_batch_id, quantity"
// @Success      201   {object}  dto.StockRecordResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock [post]
func (h *StockHandler) Admit(c *fiber.Ctx) error {
	var in dto.AdmitBatchRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	qty, err := quantity.New(in.Quantity)
	if err != nil {
		return writeError(c, h.log, domain.ErrInvalidInput)
	}
	s, err := h.engine.AdmitBatchToStock(c.UserContext(), in.SourceBatchID, qty)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.StockFromEntity(s))
}

// List godoc
// @Summary      Listar registros de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  dto.Page[dto.StockRecordResponse]
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	page, ok, err := parsePage(c)
	if !ok {
		return err
	}
	list, err := h.engine.ListStockRecords(c.UserContext(), page.FetchLimit(), page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MapPage(list, page, dto.StockFromEntity))
}

// GetByID godoc
// @Summary      Obtener registro de stock con sus salidas
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.StockRecordDetailResponse
// @Router       /api/stock/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	s, ws, err := h.engine.GetStockRecord(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.StockRecordDetailResponse{
		StockRecordResponse: dto.StockFromEntity(s),
		Withdrawals:         make([]dto.WithdrawalResponse, 0, len(ws)),
	}
	for _, w := range ws {
		out.Withdrawals = append(out.Withdrawals, dto.WithdrawalFromEntity(w))
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar registro de stock sin salidas
// @Tags         stock
// @Security     Bearer
// @Param        id   path  string  true  "ID del registro"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.engine.DeleteStockRecord(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkWithdrawn godoc
// @Summary      Retirar el saldo de un registro (daño, pérdida)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del registro"
// @Param        body  body  dto.MarkWithdrawnRequest  true  "reason"
// @Success      200   {object}  dto.StockRecordResponse
// @Router       /api/stock/{id}/withdrawn [post]
func (h *StockHandler) MarkWithdrawn(c *fiber.Ctx) error {
	var in dto.MarkWithdrawnRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	s, err := h.engine.MarkStockWithdrawn(c.UserContext(), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockFromEntity(s))
}

// CreateWithdrawal godoc
// @Summary      Registrar salida de stock
// @Description  Falla con 409 INSUFFICIENT_STOCK y "remaining" con el saldo real.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID del registro"
// @Param        body  body  dto.CreateWithdrawalRequest  true  "recipient, quantity"
// @Success      201   {object}  dto.WithdrawalCreatedResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/withdrawals [post]
func (h *StockHandler) CreateWithdrawal(c *fiber.Ctx) error {
	var in dto.CreateWithdrawalRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	qty, err := quantity.New(in.Quantity)
	if err != nil {
		return writeError(c, h.log, domain.ErrInvalidInput)
	}
	res, err := h.engine.CreateWithdrawal(c.UserContext(), c.Params("id"), in.Recipient, qty)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.WithdrawalCreatedResponse{
		Withdrawal: dto.WithdrawalFromEntity(res.Withdrawal),
		Stock:      dto.StockFromEntity(res.Stock),
	})
}

// GetWithdrawal godoc
// @Summary      Obtener salida
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la salida"
// @Success      200  {object}  dto.WithdrawalResponse
// @Router       /api/withdrawals/{id} [get]
func (h *StockHandler) GetWithdrawal(c *fiber.Ctx) error {
	w, err := h.engine.GetWithdrawal(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WithdrawalFromEntity(w))
}
