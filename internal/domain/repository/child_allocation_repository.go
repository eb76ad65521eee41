package repository

import (
	"context"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// ChildAllocationRepository puerto de sub-asignaciones.
// Toda fila existente es "viva": retirar una sub-asignación es borrarla.
type ChildAllocationRepository interface {
	Create(ctx context.Context, child *entity.ChildAllocation) error
	GetByID(ctx context.Context, id string) (*entity.ChildAllocation, error)
	GetForUpdate(ctx context.Context, id string) (*entity.ChildAllocation, error)
	// SumLiveByParent suma al leer; debe llamarse con la raíz bloqueada.
	SumLiveByParent(ctx context.Context, parentID string) (quantity.Quantity, error)
	CountByParent(ctx context.Context, parentID string) (int, error)
	ListByParent(ctx context.Context, parentID string) ([]*entity.ChildAllocation, error)
	UpdateLifecycle(ctx context.Context, child *entity.ChildAllocation) error
	Delete(ctx context.Context, id string) error
}
