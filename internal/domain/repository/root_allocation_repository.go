package repository

import (
	"context"
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// RootAllocationRepository define el puerto de persistencia de asignaciones raíz.
// GetByID y GetForUpdate devuelven (nil, nil) si no existe.
type RootAllocationRepository interface {
	Create(ctx context.Context, root *entity.RootAllocation) error
	GetByID(ctx context.Context, id string) (*entity.RootAllocation, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.RootAllocation, error)
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	UpdateRemarks(ctx context.Context, id, remarks string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ListByDistributor(ctx context.Context, distributorID string, limit, offset int) ([]*entity.RootAllocation, error)
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]*entity.RootAllocation, error)
}
