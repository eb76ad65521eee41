package repository

import (
	"context"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// SourceBatchRepository lectura del estado de verificación que publica el
// sistema externo de calidad. Upsert lo usa la sincronización con ese sistema.
type SourceBatchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.SourceBatch, error)
	Upsert(ctx context.Context, b *entity.SourceBatch) error
}
