package repository

import (
	"context"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// RootSummaryResult agregado de una asignación raíz y sus sub-asignaciones.
type RootSummaryResult struct {
	RootID        string
	ResourceKind  string
	Status        string
	Quantity      quantity.Quantity
	Resubdivided  quantity.Quantity
	ChildCount    int
	CountsByState map[string]int
}

// KindTotalsResult totales por tipo de recurso para un distribuidor.
type KindTotalsResult struct {
	ResourceKind string
	RootCount    int
	Granted      quantity.Quantity
	Resubdivided quantity.Quantity
	Planted      quantity.Quantity
}

// StockTotalsResult totales de stock por tipo de recurso.
type StockTotalsResult struct {
	ResourceKind    string
	RecordCount     int
	Initial         quantity.Quantity
	Remaining       quantity.Quantity
	WithdrawalCount int
}

// DeliveryCountResult conteo de entregas por estado y pago.
type DeliveryCountResult struct {
	State        string
	PaymentState string
	Count        int
}

// ReportingRepository consultas de solo lectura, sin bloqueo (consistencia eventual).
type ReportingRepository interface {
	RootSummary(ctx context.Context, rootID string) (*RootSummaryResult, error)
	DistributorTotals(ctx context.Context, distributorID string) ([]KindTotalsResult, error)
	StockTotals(ctx context.Context) ([]StockTotalsResult, error)
	DeliveryCounts(ctx context.Context) ([]DeliveryCountResult, error)
}
