package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var _ repository.DeliveryRepository = (*DeliveryRepo)(nil)

// DeliveryRepo entregas por unidad. Una por salida (índice único).
type DeliveryRepo struct {
	q Querier
}

// NewDeliveryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeliveryRepository(q Querier) *DeliveryRepo {
	return &DeliveryRepo{q: q}
}

const deliveryColumns = `id, source_withdrawal_id, state, cancel_reason, payment_state, dispatched_at,
	confirmed_at, delivered_at, completed_at, cancelled_at, paid_at, updated_at`

func scanDelivery(row pgx.Row) (*entity.UnitDeliveryRecord, error) {
	var d entity.UnitDeliveryRecord
	if err := row.Scan(
		&d.ID, &d.SourceWithdrawalID, &d.State, &d.CancelReason, &d.PaymentState, &d.DispatchedAt,
		&d.ConfirmedAt, &d.DeliveredAt, &d.CompletedAt, &d.CancelledAt, &d.PaidAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeliveryRepo) Create(ctx context.Context, d *entity.UnitDeliveryRecord) error {
	query := `
		INSERT INTO unit_deliveries (` + deliveryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.SourceWithdrawalID, d.State, d.CancelReason, d.PaymentState, d.DispatchedAt,
		d.ConfirmedAt, d.DeliveredAt, d.CompletedAt, d.CancelledAt, d.PaidAt, d.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (r *DeliveryRepo) GetByID(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error) {
	return r.get(ctx, `SELECT `+deliveryColumns+` FROM unit_deliveries WHERE id = $1`, id)
}

func (r *DeliveryRepo) GetForUpdate(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error) {
	return r.get(ctx, `SELECT `+deliveryColumns+` FROM unit_deliveries WHERE id = $1 FOR UPDATE`, id)
}

func (r *DeliveryRepo) get(ctx context.Context, query, id string) (*entity.UnitDeliveryRecord, error) {
	d, err := scanDelivery(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	return d, nil
}

func (r *DeliveryRepo) Update(ctx context.Context, d *entity.UnitDeliveryRecord) error {
	query := `
		UPDATE unit_deliveries
		SET state = $2, cancel_reason = $3, payment_state = $4, confirmed_at = $5, delivered_at = $6,
		    completed_at = $7, cancelled_at = $8, paid_at = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		d.ID, d.State, d.CancelReason, d.PaymentState, d.ConfirmedAt, d.DeliveredAt,
		d.CompletedAt, d.CancelledAt, d.PaidAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
