package entity

import (
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// Estados derivados de una asignación raíz. Solo allocation.DeriveRootStatus los escribe.
const (
	RootStatusAllocated             = "ALLOCATED"
	RootStatusPartiallyResubdivided = "PARTIALLY_RESUBDIVIDED"
	RootStatusFullyResubdivided     = "FULLY_RESUBDIVIDED"
	RootStatusCancelled             = "CANCELLED"
)

// RootAllocation representa la asignación de un distribuidor (oficial de programa)
// a un receptor intermedio (asociación). La cantidad es inmutable tras la creación.
type RootAllocation struct {
	ID            string
	ResourceKind  string // variedad de plántula o grado de fibra
	Quantity      quantity.Quantity
	DistributorID string
	RecipientID   string
	Remarks       string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsCancelled indica si la asignación fue cancelada.
func (r *RootAllocation) IsCancelled() bool {
	return r.Status == RootStatusCancelled
}
