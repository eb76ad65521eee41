package entity

import (
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// Withdrawal salida de material contra un StockRecord. Inmutable.
type Withdrawal struct {
	ID            string
	StockRecordID string
	Quantity      quantity.Quantity
	Recipient     string
	CreatedAt     time.Time
}
