package entity

import (
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// Estados derivados de un registro de stock.
const (
	StockStatusStocked              = "STOCKED"
	StockStatusPartiallyDistributed = "PARTIALLY_DISTRIBUTED"
	StockStatusFullyDistributed     = "FULLY_DISTRIBUTED"
	StockStatusWithdrawn            = "WITHDRAWN" // retirado por daño; no admite más salidas
)

// StockRecord saldo corriente creado una sola vez por lote verificado.
// RemainingQuantity es el contador que decrementa cada salida (0 <= remaining <= initial).
type StockRecord struct {
	ID                string
	SourceBatchID     string
	ResourceKind      string
	InitialQuantity   quantity.Quantity
	RemainingQuantity quantity.Quantity
	Status            string
	WithdrawnReason   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Distributed cantidad que ya salió del registro.
func (s *StockRecord) Distributed() quantity.Quantity {
	return s.InitialQuantity.SubFloor(s.RemainingQuantity)
}
