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
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var _ repository.RootAllocationRepository = (*RootAllocationRepo)(nil)

// RootAllocationRepo implementación de RootAllocationRepository sobre PostgreSQL (usable con pool o tx).
type RootAllocationRepo struct {
	q Querier
}

// NewRootAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRootAllocationRepository(q Querier) *RootAllocationRepo {
	return &RootAllocationRepo{q: q}
}

const rootColumns = `id, resource_kind, quantity, distributor_id, recipient_id, remarks, status, created_at, updated_at`

func scanRoot(row pgx.Row) (*entity.RootAllocation, error) {
	var (
		r   entity.RootAllocation
		qty decimal.Decimal
	)
	if err := row.Scan(&r.ID, &r.ResourceKind, &qty, &r.DistributorID, &r.RecipientID, &r.Remarks, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	q, err := toQty(qty)
	if err != nil {
		return nil, err
	}
	r.Quantity = q
	return &r, nil
}

func (r *RootAllocationRepo) Create(ctx context.Context, root *entity.RootAllocation) error {
	query := `
		INSERT INTO root_allocations (` + rootColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		root.ID, root.ResourceKind, root.Quantity.Decimal(), root.DistributorID, root.RecipientID,
		root.Remarks, root.Status, root.CreatedAt, root.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert root allocation: %w", err)
	}
	return nil
}

func (r *RootAllocationRepo) GetByID(ctx context.Context, id string) (*entity.RootAllocation, error) {
	return r.get(ctx, `SELECT `+rootColumns+` FROM root_allocations WHERE id = $1`, id)
}

// GetForUpdate bloquea la fila raíz; todas las altas y bajas de hijos pasan por aquí.
func (r *RootAllocationRepo) GetForUpdate(ctx context.Context, id string) (*entity.RootAllocation, error) {
	return r.get(ctx, `SELECT `+rootColumns+` FROM root_allocations WHERE id = $1 FOR UPDATE`, id)
}

func (r *RootAllocationRepo) get(ctx context.Context, query, id string) (*entity.RootAllocation, error) {
	root, err := scanRoot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get root allocation: %w", err)
	}
	return root, nil
}

func (r *RootAllocationRepo) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE root_allocations SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update root status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RootAllocationRepo) UpdateRemarks(ctx context.Context, id, remarks string, updatedAt time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE root_allocations SET remarks = $2, updated_at = $3 WHERE id = $1`, id, remarks, updatedAt)
	if err != nil {
		return fmt.Errorf("update root remarks: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RootAllocationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM root_allocations WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrHasDependents
		}
		return fmt.Errorf("delete root allocation: %w", err)
	}
	return nil
}

func (r *RootAllocationRepo) ListByDistributor(ctx context.Context, distributorID string, limit, offset int) ([]*entity.RootAllocation, error) {
	return r.list(ctx, `distributor_id`, distributorID, limit, offset)
}

func (r *RootAllocationRepo) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.RootAllocation, error) {
	return r.list(ctx, `recipient_id`, recipientID, limit, offset)
}

// list column es siempre una constante de este archivo.
func (r *RootAllocationRepo) list(ctx context.Context, column, value string, limit, offset int) ([]*entity.RootAllocation, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT ` + rootColumns + `
		FROM root_allocations
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, value, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list root allocations: %w", err)
	}
	defer rows.Close()

	var list []*entity.RootAllocation
	for rows.Next() {
		root, err := scanRoot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan root allocation: %w", err)
		}
		list = append(list, root)
	}
	return list, rows.Err()
}
