package allocation

import (
	"context"
	"errors"
	"strings"

	"github.com/jhoicas/distribucion-api/internal/domain"
	domainalloc "github.com/jhoicas/distribucion-api/internal/domain/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// AdmitBatchToStock crea el registro de stock de un lote verificado.
// qty cero toma la cantidad del lote; nunca puede superarla.
// La unicidad por lote la garantiza el constraint único, no una lectura previa.
func (e *AllocationEngine) AdmitBatchToStock(ctx context.Context, sourceBatchID string, qty quantity.Quantity) (*entity.StockRecord, error) {
	if sourceBatchID == "" {
		return nil, domain.ErrInvalidInput
	}
	var stock *entity.StockRecord
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		batch, err := r.Batches.GetByID(ctx, sourceBatchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.ErrNotFound
		}
		if !batch.IsVerified() {
			return &domain.TransitionError{
				Kind:    domain.ErrNotVerified,
				Current: batch.VerificationState,
				Target:  entity.BatchVerificationVerified,
			}
		}
		if qty.IsZero() {
			qty = batch.Quantity
		}
		if !qty.IsPositive() || qty.GreaterThan(batch.Quantity) {
			return domain.ErrInvalidInput
		}

		now := e.now()
		stock = &entity.StockRecord{
			ID:                e.newID(),
			SourceBatchID:     sourceBatchID,
			ResourceKind:      batch.ResourceKind,
			InitialQuantity:   qty,
			RemainingQuantity: qty,
			Status:            domainalloc.DeriveStockStatus(qty, qty, false),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return r.Stock.Create(ctx, stock)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyAdmitted) {
			e.log.Warn().Str("source_batch_id", sourceBatchID).Msg("lote ya ingresado a stock")
		}
		return nil, err
	}
	e.log.Info().
		Str("stock_id", stock.ID).
		Str("source_batch_id", sourceBatchID).
		Str("quantity", stock.InitialQuantity.String()).
		Msg("lote ingresado a stock")
	return stock, nil
}

// WithdrawalResult salida registrada y saldo resultante.
type WithdrawalResult struct {
	Withdrawal *entity.Withdrawal
	Stock      *entity.StockRecord
}

// CreateWithdrawal descuenta qty del saldo con una única actualización condicional
// (remaining >= qty). Si no afecta filas, relee el saldo real y devuelve
// *domain.CapacityError (ErrInsufficientStock) sin haber escrito nada.
func (e *AllocationEngine) CreateWithdrawal(ctx context.Context, stockID, recipient string, qty quantity.Quantity) (*WithdrawalResult, error) {
	recipient = strings.TrimSpace(recipient)
	if stockID == "" || recipient == "" || !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	var res *WithdrawalResult
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		now := e.now()
		stock, err := r.Stock.Decrement(ctx, stockID, qty, now)
		if err != nil {
			return err
		}
		if stock == nil {
			current, err := r.Stock.GetByID(ctx, stockID)
			if err != nil {
				return err
			}
			if current == nil {
				return domain.ErrNotFound
			}
			if err := domainalloc.ValidateWithdrawal(current, qty); err != nil {
				return err
			}
			return &domain.CapacityError{Kind: domain.ErrInsufficientStock, Requested: qty, Remaining: current.RemainingQuantity}
		}

		status := domainalloc.DeriveStockStatus(stock.InitialQuantity, stock.RemainingQuantity, false)
		if status != stock.Status {
			stock.Status = status
			if err := r.Stock.Update(ctx, stock); err != nil {
				return err
			}
		}

		w := &entity.Withdrawal{
			ID:            e.newID(),
			StockRecordID: stockID,
			Quantity:      qty,
			Recipient:     recipient,
			CreatedAt:     now,
		}
		if err := r.Withdrawals.Create(ctx, w); err != nil {
			return err
		}
		res = &WithdrawalResult{Withdrawal: w, Stock: stock}
		return nil
	})
	if err != nil {
		var capErr *domain.CapacityError
		if errors.As(err, &capErr) {
			e.log.Warn().
				Str("stock_id", stockID).
				Str("requested", capErr.Requested.String()).
				Str("remaining", capErr.Remaining.String()).
				Msg("salida rechazada por saldo insuficiente")
		}
		return nil, err
	}
	e.log.Info().
		Str("stock_id", stockID).
		Str("withdrawal_id", res.Withdrawal.ID).
		Str("quantity", qty.String()).
		Str("remaining", res.Stock.RemainingQuantity.String()).
		Str("status", res.Stock.Status).
		Msg("salida registrada")
	return res, nil
}

// MarkStockWithdrawn da de baja el saldo restante (daño, pérdida en bodega).
// El saldo pasa a cero y el registro no admite más salidas.
func (e *AllocationEngine) MarkStockWithdrawn(ctx context.Context, id, reason string) (*entity.StockRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrInvalidInput
	}
	var stock *entity.StockRecord
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		var err error
		stock, err = r.Stock.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		if stock.Status == entity.StockStatusWithdrawn {
			return &domain.TransitionError{Kind: domain.ErrInvalidTransition, Current: stock.Status, Target: entity.StockStatusWithdrawn}
		}
		stock.RemainingQuantity = quantity.Zero
		stock.Status = domainalloc.DeriveStockStatus(stock.InitialQuantity, stock.RemainingQuantity, true)
		stock.WithdrawnReason = reason
		stock.UpdatedAt = e.now()
		return r.Stock.Update(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("stock_id", id).Str("reason", reason).Msg("stock dado de baja")
	return stock, nil
}

// DeleteStockRecord borra un registro sin salidas.
func (e *AllocationEngine) DeleteStockRecord(ctx context.Context, id string) error {
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		stock, err := r.Stock.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		n, err := r.Withdrawals.CountByStock(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.DependentsError{Count: n}
		}
		return r.Stock.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("stock_id", id).Msg("registro de stock eliminado")
	return nil
}

// GetStockRecord devuelve el registro con sus salidas.
func (e *AllocationEngine) GetStockRecord(ctx context.Context, id string) (*entity.StockRecord, []*entity.Withdrawal, error) {
	var (
		stock       *entity.StockRecord
		withdrawals []*entity.Withdrawal
	)
	err := e.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		stock, err = r.Stock.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		withdrawals, err = r.Withdrawals.ListByStock(ctx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return stock, withdrawals, nil
}

// ListStockRecords lista registros de stock paginados.
func (e *AllocationEngine) ListStockRecords(ctx context.Context, limit, offset int) ([]*entity.StockRecord, error) {
	var list []*entity.StockRecord
	err := e.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		list, err = r.Stock.List(ctx, limit, offset)
		return err
	})
	return list, err
}

// UpsertSourceBatch sincroniza el estado de verificación publicado por el sistema de calidad.
func (e *AllocationEngine) UpsertSourceBatch(ctx context.Context, b *entity.SourceBatch) error {
	if b == nil || b.ID == "" || b.ResourceKind == "" || !b.Quantity.IsPositive() {
		return domain.ErrInvalidInput
	}
	switch b.VerificationState {
	case entity.BatchVerificationPending, entity.BatchVerificationVerified, entity.BatchVerificationRejected:
	default:
		return domain.ErrInvalidInput
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = e.now()
	}
	if b.VerificationState == entity.BatchVerificationVerified && b.VerifiedAt == nil {
		t := e.now()
		b.VerifiedAt = &t
	}
	return e.run(ctx, func(ctx context.Context, r Repos) error {
		return r.Batches.Upsert(ctx, b)
	})
}

// GetWithdrawal devuelve una salida.
func (e *AllocationEngine) GetWithdrawal(ctx context.Context, id string) (*entity.Withdrawal, error) {
	var w *entity.Withdrawal
	err := e.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		w, err = r.Withdrawals.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return w, err
}

// GetSourceBatch devuelve el lote con su estado de verificación.
func (e *AllocationEngine) GetSourceBatch(ctx context.Context, id string) (*entity.SourceBatch, error) {
	var b *entity.SourceBatch
	err := e.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		b, err = r.Batches.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return b, err
}
