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

var _ repository.ChildAllocationRepository = (*ChildAllocationRepo)(nil)

// ChildAllocationRepo sub-asignaciones sobre PostgreSQL. La evidencia vive en
// columnas nulas de la misma fila.
type ChildAllocationRepo struct {
	q Querier
}

// NewChildAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewChildAllocationRepository(q Querier) *ChildAllocationRepo {
	return &ChildAllocationRepo{q: q}
}

const childColumns = `id, parent_id, quantity, recipient_id, lifecycle_state,
	evidence_date, evidence_location, evidence_proof_uris, evidence_notes, created_at, updated_at`

func scanChild(row pgx.Row) (*entity.ChildAllocation, error) {
	var (
		c        entity.ChildAllocation
		qty      decimal.Decimal
		evDate   *time.Time
		location *string
		proofs   []string
		notes    *string
	)
	if err := row.Scan(
		&c.ID, &c.ParentID, &qty, &c.RecipientID, &c.LifecycleState,
		&evDate, &location, &proofs, &notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	q, err := toQty(qty)
	if err != nil {
		return nil, err
	}
	c.Quantity = q
	if evDate != nil {
		c.Evidence = &entity.PlantingEvidence{
			Date:      *evDate,
			Location:  derefString(location),
			ProofURIs: proofs,
			Notes:     derefString(notes),
		}
	}
	return &c, nil
}

func (r *ChildAllocationRepo) Create(ctx context.Context, child *entity.ChildAllocation) error {
	query := `
		INSERT INTO child_allocations (id, parent_id, quantity, recipient_id, lifecycle_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		child.ID, child.ParentID, child.Quantity.Decimal(), child.RecipientID,
		child.LifecycleState, child.CreatedAt, child.UpdatedAt,
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return domain.ErrNotFound
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert child allocation: %w", err)
	}
	return nil
}

func (r *ChildAllocationRepo) GetByID(ctx context.Context, id string) (*entity.ChildAllocation, error) {
	return r.get(ctx, `SELECT `+childColumns+` FROM child_allocations WHERE id = $1`, id)
}

func (r *ChildAllocationRepo) GetForUpdate(ctx context.Context, id string) (*entity.ChildAllocation, error) {
	return r.get(ctx, `SELECT `+childColumns+` FROM child_allocations WHERE id = $1 FOR UPDATE`, id)
}

func (r *ChildAllocationRepo) get(ctx context.Context, query, id string) (*entity.ChildAllocation, error) {
	c, err := scanChild(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get child allocation: %w", err)
	}
	return c, nil
}

func (r *ChildAllocationRepo) SumLiveByParent(ctx context.Context, parentID string) (quantity.Quantity, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM child_allocations WHERE parent_id = $1`, parentID,
	).Scan(&sum)
	if err != nil {
		return quantity.Zero, fmt.Errorf("sum child allocations: %w", err)
	}
	return toQty(sum)
}

func (r *ChildAllocationRepo) CountByParent(ctx context.Context, parentID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM child_allocations WHERE parent_id = $1`, parentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count child allocations: %w", err)
	}
	return n, nil
}

func (r *ChildAllocationRepo) ListByParent(ctx context.Context, parentID string) ([]*entity.ChildAllocation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+childColumns+` FROM child_allocations WHERE parent_id = $1 ORDER BY created_at`, parentID)
	if err != nil {
		return nil, fmt.Errorf("list child allocations: %w", err)
	}
	defer rows.Close()

	var list []*entity.ChildAllocation
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child allocation: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *ChildAllocationRepo) UpdateLifecycle(ctx context.Context, child *entity.ChildAllocation) error {
	var (
		evDate   *time.Time
		location *string
		proofs   []string
		notes    *string
	)
	if ev := child.Evidence; ev != nil {
		evDate = &ev.Date
		location = nullString(ev.Location)
		proofs = ev.ProofURIs
		notes = nullString(ev.Notes)
	}
	query := `
		UPDATE child_allocations
		SET lifecycle_state = $2, evidence_date = $3, evidence_location = $4,
		    evidence_proof_uris = $5, evidence_notes = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, child.ID, child.LifecycleState, evDate, location, proofs, notes, child.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update child lifecycle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChildAllocationRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM child_allocations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete child allocation: %w", err)
	}
	return nil
}
