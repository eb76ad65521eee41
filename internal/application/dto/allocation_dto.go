package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// CreateRootAllocationRequest body de POST /api/allocations.
// El distribuidor es el usuario autenticado.
type CreateRootAllocationRequest struct {
	ResourceKind string          `json:"resource_kind" validate:"required,max=100"`
	Quantity     decimal.Decimal `json:"quantity" validate:"positive_decimal"`
	RecipientID  string          `json:"recipient_id" validate:"required,max=100"`
	Remarks      string          `json:"remarks" validate:"max=1000"`
}

// CreateChildAllocationRequest body de POST /api/allocations/:id/children.
type CreateChildAllocationRequest struct {
	RecipientID string          `json:"recipient_id" validate:"required,max=100"`
	Quantity    decimal.Decimal `json:"quantity" validate:"positive_decimal"`
}

// UpdateRemarksRequest body de PATCH /api/allocations/:id.
type UpdateRemarksRequest struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

// EvidenceRequest evidencia de una transición terminal de una sub-asignación.
// La completitud (fecha, lugar, al menos una prueba) la decide el dominio.
type EvidenceRequest struct {
	State     string    `json:"state" validate:"omitempty,oneof=PLANTED DAMAGED REPLANTED LOST OTHER"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location" validate:"max=500"`
	ProofURIs []string  `json:"proof_uris" validate:"dive,max=2048"`
	Notes     string    `json:"notes" validate:"max=2000"`
}

// ToEntity convierte la evidencia al tipo de dominio.
func (r EvidenceRequest) ToEntity() *entity.PlantingEvidence {
	return &entity.PlantingEvidence{
		Date:      r.Date,
		Location:  r.Location,
		ProofURIs: r.ProofURIs,
		Notes:     r.Notes,
	}
}

// RootAllocationResponse asignación raíz.
type RootAllocationResponse struct {
	ID            string            `json:"id"`
	ResourceKind  string            `json:"resource_kind"`
	Quantity      quantity.Quantity `json:"quantity"`
	DistributorID string            `json:"distributor_id"`
	RecipientID   string            `json:"recipient_id"`
	Remarks       string            `json:"remarks,omitempty"`
	Status        string            `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// RootAllocationDetailResponse raíz con sus sub-asignaciones.
type RootAllocationDetailResponse struct {
	RootAllocationResponse
	Children []ChildAllocationResponse `json:"children"`
}

// EvidenceResponse evidencia registrada.
type EvidenceResponse struct {
	Date      time.Time `json:"date"`
	Location  string    `json:"location"`
	ProofURIs []string  `json:"proof_uris"`
	Notes     string    `json:"notes,omitempty"`
}

// ChildAllocationResponse sub-asignación.
type ChildAllocationResponse struct {
	ID             string            `json:"id"`
	ParentID       string            `json:"parent_id"`
	Quantity       quantity.Quantity `json:"quantity"`
	RecipientID    string            `json:"recipient_id"`
	LifecycleState string            `json:"lifecycle_state"`
	Evidence       *EvidenceResponse `json:"evidence,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ChildCreatedResponse sub-asignación creada más el estado derivado de la raíz.
type ChildCreatedResponse struct {
	Child             ChildAllocationResponse `json:"child"`
	RootStatus        string                  `json:"root_status"`
	RemainingCapacity quantity.Quantity       `json:"remaining_capacity"`
}

// RootFromEntity mapea una raíz.
func RootFromEntity(r *entity.RootAllocation) RootAllocationResponse {
	return RootAllocationResponse{
		ID:            r.ID,
		ResourceKind:  r.ResourceKind,
		Quantity:      r.Quantity,
		DistributorID: r.DistributorID,
		RecipientID:   r.RecipientID,
		Remarks:       r.Remarks,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ChildFromEntity mapea una sub-asignación.
func ChildFromEntity(c *entity.ChildAllocation) ChildAllocationResponse {
	out := ChildAllocationResponse{
		ID:             c.ID,
		ParentID:       c.ParentID,
		Quantity:       c.Quantity,
		RecipientID:    c.RecipientID,
		LifecycleState: c.LifecycleState,
		CreatedAt:      c.CreatedAt,
	}
	if ev := c.Evidence; ev != nil {
		out.Evidence = &EvidenceResponse{Date: ev.Date, Location: ev.Location, ProofURIs: ev.ProofURIs, Notes: ev.Notes}
	}
	return out
}
