package repository

import (
	"context"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// WithdrawalRepository puerto de salidas (append-only).
type WithdrawalRepository interface {
	Create(ctx context.Context, w *entity.Withdrawal) error
	GetByID(ctx context.Context, id string) (*entity.Withdrawal, error)
	ListByStock(ctx context.Context, stockRecordID string) ([]*entity.Withdrawal, error)
	CountByStock(ctx context.Context, stockRecordID string) (int, error)
}
