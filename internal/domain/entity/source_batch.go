package entity

import (
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// Estados de verificación que reporta el sistema externo de calidad.
const (
	BatchVerificationPending  = "PENDING"
	BatchVerificationVerified = "VERIFIED"
	BatchVerificationRejected = "REJECTED"
)

// SourceBatch lote cosechado. El motor solo lo lee; la verificación vive fuera.
// No existe un booleano is_verified: se deriva del estado.
type SourceBatch struct {
	ID                string
	ResourceKind      string
	Quantity          quantity.Quantity
	VerificationState string
	VerifiedAt        *time.Time
	CreatedAt         time.Time
}

// IsVerified deriva del único campo de estado.
func (b *SourceBatch) IsVerified() bool {
	return b.VerificationState == BatchVerificationVerified
}
