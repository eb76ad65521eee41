package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var _ repository.SourceBatchRepository = (*SourceBatchRepo)(nil)

// SourceBatchRepo lotes de origen con el estado publicado por el sistema de calidad.
type SourceBatchRepo struct {
	q Querier
}

// NewSourceBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSourceBatchRepository(q Querier) *SourceBatchRepo {
	return &SourceBatchRepo{q: q}
}

func (r *SourceBatchRepo) GetByID(ctx context.Context, id string) (*entity.SourceBatch, error) {
	query := `
		SELECT id, resource_kind, quantity, verification_state, verified_at, created_at
		FROM source_batches WHERE id = $1`
	var (
		b   entity.SourceBatch
		qty decimal.Decimal
	)
	err := r.q.QueryRow(ctx, query, id).Scan(&b.ID, &b.ResourceKind, &qty, &b.VerificationState, &b.VerifiedAt, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get source batch: %w", err)
	}
	if b.Quantity, err = toQty(qty); err != nil {
		return nil, err
	}
	return &b, nil
}

// Upsert inserta o actualiza el lote (por id); created_at se conserva.
func (r *SourceBatchRepo) Upsert(ctx context.Context, b *entity.SourceBatch) error {
	query := `
		INSERT INTO source_batches (id, resource_kind, quantity, verification_state, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET resource_kind = EXCLUDED.resource_kind, quantity = EXCLUDED.quantity,
		              verification_state = EXCLUDED.verification_state, verified_at = EXCLUDED.verified_at`
	_, err := r.q.Exec(ctx, query, b.ID, b.ResourceKind, b.Quantity.Decimal(), b.VerificationState, b.VerifiedAt, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert source batch: %w", err)
	}
	return nil
}
