package repository

import (
	"context"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// DeliveryRepository puerto de entregas por unidad.
type DeliveryRepository interface {
	// Create devuelve domain.ErrDuplicate si la salida ya tiene entrega.
	Create(ctx context.Context, d *entity.UnitDeliveryRecord) error
	GetByID(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error)
	GetForUpdate(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error)
	Update(ctx context.Context, d *entity.UnitDeliveryRecord) error
}
