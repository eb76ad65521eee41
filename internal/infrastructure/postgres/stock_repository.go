package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

const stockColumns = `id, source_batch_id, resource_kind, initial_quantity, remaining_quantity,
	status, withdrawn_reason, created_at, updated_at`

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var (
		s                  entity.StockRecord
		initial, remaining decimal.Decimal
	)
	if err := row.Scan(
		&s.ID, &s.SourceBatchID, &s.ResourceKind, &initial, &remaining,
		&s.Status, &s.WithdrawnReason, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	var err error
	if s.InitialQuantity, err = toQty(initial); err != nil {
		return nil, err
	}
	if s.RemainingQuantity, err = toQty(remaining); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserta el registro; el índice único sobre source_batch_id resuelve
// los ingresos concurrentes del mismo lote.
func (r *StockRecordRepo) Create(ctx context.Context, s *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.SourceBatchID, s.ResourceKind, s.InitialQuantity.Decimal(), s.RemainingQuantity.Decimal(),
		s.Status, s.WithdrawnReason, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyAdmitted
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

func (r *StockRecordRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.get(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE id = $1`, id)
}

// GetForUpdate obtiene el registro y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.get(ctx, `SELECT `+stockColumns+` FROM stock_records WHERE id = $1 FOR UPDATE`, id)
}

func (r *StockRecordRepo) get(ctx context.Context, query, arg string) (*entity.StockRecord, error) {
	s, err := scanStock(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return s, nil
}

// Decrement test-and-decrement en una sola sentencia: la condición y la resta
// ocurren bajo el mismo bloqueo de fila. Sin filas afectadas devuelve (nil, nil).
func (r *StockRecordRepo) Decrement(ctx context.Context, id string, qty quantity.Quantity, at time.Time) (*entity.StockRecord, error) {
	query := `
		UPDATE stock_records
		SET remaining_quantity = remaining_quantity - $2, updated_at = $3
		WHERE id = $1 AND remaining_quantity >= $2 AND status <> 'WITHDRAWN'
		RETURNING ` + stockColumns
	s, err := scanStock(r.q.QueryRow(ctx, query, id, qty.Decimal(), at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	return s, nil
}

func (r *StockRecordRepo) Update(ctx context.Context, s *entity.StockRecord) error {
	query := `
		UPDATE stock_records
		SET remaining_quantity = $2, status = $3, withdrawn_reason = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, s.ID, s.RemainingQuantity.Decimal(), s.Status, s.WithdrawnReason, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StockRecordRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_records WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrHasDependents
		}
		return fmt.Errorf("delete stock record: %w", err)
	}
	return nil
}

func (r *StockRecordRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+stockColumns+` FROM stock_records ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockRecord
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
