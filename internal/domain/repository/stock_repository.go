package repository

import (
	"context"
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// StockRecordRepository puerto del saldo corriente por lote.
type StockRecordRepository interface {
	// Create devuelve domain.ErrAlreadyAdmitted si ya existe un registro para el lote
	// (constraint único sobre source_batch_id, no una lectura previa).
	Create(ctx context.Context, stock *entity.StockRecord) error
	GetByID(ctx context.Context, id string) (*entity.StockRecord, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error)
	// Decrement resta qty con una única actualización condicional
	// (remaining >= qty y no retirado). Devuelve (nil, nil) si no afectó filas.
	Decrement(ctx context.Context, id string, qty quantity.Quantity, at time.Time) (*entity.StockRecord, error)
	// Update persiste saldo, estado y motivo de retiro (usar con la fila bloqueada).
	Update(ctx context.Context, stock *entity.StockRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entity.StockRecord, error)
}
