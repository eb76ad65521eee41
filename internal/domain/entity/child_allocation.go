package entity

import (
	"strings"
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// Estados del ciclo de vida de una sub-asignación (por agricultor).
const (
	ChildStateDistributed = "DISTRIBUTED"
	ChildStatePlanted     = "PLANTED"
	ChildStateDamaged     = "DAMAGED"
	ChildStateReplanted   = "REPLANTED"
	ChildStateLost        = "LOST"
	ChildStateOther       = "OTHER"
)

// ChildAllocation sub-asignación de la asociación a un agricultor.
// Referencia exactamente una RootAllocation; su cantidad cuenta contra la raíz
// mientras exista (retirarla = borrarla).
type ChildAllocation struct {
	ID             string
	ParentID       string
	Quantity       quantity.Quantity
	RecipientID    string
	LifecycleState string
	Evidence       *PlantingEvidence // nil mientras está DISTRIBUTED
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PlantingEvidence soporte de una transición terminal. Las pruebas son URIs
// opacas emitidas por el servicio externo de carga de archivos.
type PlantingEvidence struct {
	Date      time.Time
	Location  string
	ProofURIs []string
	Notes     string
}

// Normalized copia con ubicación, notas y pruebas recortadas; descarta las pruebas vacías.
func (e *PlantingEvidence) Normalized() *PlantingEvidence {
	if e == nil {
		return nil
	}
	out := *e
	out.Location = strings.TrimSpace(e.Location)
	out.Notes = strings.TrimSpace(e.Notes)
	out.ProofURIs = make([]string, 0, len(e.ProofURIs))
	for _, uri := range e.ProofURIs {
		if s := strings.TrimSpace(uri); s != "" {
			out.ProofURIs = append(out.ProofURIs, s)
		}
	}
	return &out
}

// IsComplete verifica fecha, ubicación y al menos una prueba, ignorando espacios.
func (e *PlantingEvidence) IsComplete() bool {
	n := e.Normalized()
	return n != nil && !n.Date.IsZero() && n.Location != "" && len(n.ProofURIs) > 0
}
