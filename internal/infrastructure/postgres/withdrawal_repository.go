package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var _ repository.WithdrawalRepository = (*WithdrawalRepo)(nil)

// WithdrawalRepo salidas de stock (solo inserción).
type WithdrawalRepo struct {
	q Querier
}

// NewWithdrawalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewWithdrawalRepository(q Querier) *WithdrawalRepo {
	return &WithdrawalRepo{q: q}
}

const withdrawalColumns = `id, stock_record_id, quantity, recipient, created_at`

func scanWithdrawal(row pgx.Row) (*entity.Withdrawal, error) {
	var (
		w   entity.Withdrawal
		qty decimal.Decimal
	)
	if err := row.Scan(&w.ID, &w.StockRecordID, &qty, &w.Recipient, &w.CreatedAt); err != nil {
		return nil, err
	}
	q, err := toQty(qty)
	if err != nil {
		return nil, err
	}
	w.Quantity = q
	return &w, nil
}

func (r *WithdrawalRepo) Create(ctx context.Context, w *entity.Withdrawal) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO withdrawals (`+withdrawalColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.StockRecordID, w.Quantity.Decimal(), w.Recipient, w.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return nil
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id string) (*entity.Withdrawal, error) {
	w, err := scanWithdrawal(r.q.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal: %w", err)
	}
	return w, nil
}

func (r *WithdrawalRepo) ListByStock(ctx context.Context, stockRecordID string) ([]*entity.Withdrawal, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE stock_record_id = $1 ORDER BY created_at`, stockRecordID)
	if err != nil {
		return nil, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var list []*entity.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func (r *WithdrawalRepo) CountByStock(ctx context.Context, stockRecordID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawals WHERE stock_record_id = $1`, stockRecordID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count withdrawals: %w", err)
	}
	return n, nil
}
