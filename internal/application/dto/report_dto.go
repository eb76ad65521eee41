package dto

import (
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// RootSummaryDTO respuesta de GET /api/reports/allocations/:id.
type RootSummaryDTO struct {
	RootID            string            `json:"root_id"`
	ResourceKind      string            `json:"resource_kind"`
	Status            string            `json:"status"`
	Quantity          quantity.Quantity `json:"quantity"`
	Resubdivided      quantity.Quantity `json:"resubdivided"`
	RemainingCapacity quantity.Quantity `json:"remaining_capacity"`
	ChildCount        int               `json:"child_count"`
	CountsByState     map[string]int    `json:"counts_by_state"`
}

// KindTotalsDTO totales de un tipo de recurso en el tablero del distribuidor.
type KindTotalsDTO struct {
	ResourceKind string            `json:"resource_kind"`
	RootCount    int               `json:"root_count"`
	Granted      quantity.Quantity `json:"granted"`
	Resubdivided quantity.Quantity `json:"resubdivided"`
	Remaining    quantity.Quantity `json:"remaining"`
	Planted      quantity.Quantity `json:"planted"`
}

// DistributorDashboardDTO respuesta de GET /api/reports/distributor.
type DistributorDashboardDTO struct {
	DistributorID string          `json:"distributor_id"`
	Kinds         []KindTotalsDTO `json:"kinds"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// StockKindDTO totales de stock de un tipo de recurso.
type StockKindDTO struct {
	ResourceKind    string            `json:"resource_kind"`
	RecordCount     int               `json:"record_count"`
	Initial         quantity.Quantity `json:"initial"`
	Remaining       quantity.Quantity `json:"remaining"`
	Distributed     quantity.Quantity `json:"distributed"`
	WithdrawalCount int               `json:"withdrawal_count"`
}

// StockSummaryDTO respuesta de GET /api/reports/stock.
type StockSummaryDTO struct {
	Kinds       []StockKindDTO `json:"kinds"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// DeliverySummaryDTO respuesta de GET /api/reports/deliveries.
type DeliverySummaryDTO struct {
	ByState     map[string]int `json:"by_state"`
	Paid        int            `json:"paid"`
	Unpaid      int            `json:"unpaid"`
	Total       int            `json:"total"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// OverviewDTO respuesta de GET /api/reports/overview (stock + entregas).
type OverviewDTO struct {
	Stock      *StockSummaryDTO    `json:"stock"`
	Deliveries *DeliverySummaryDTO `json:"deliveries"`
}
