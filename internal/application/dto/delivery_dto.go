package dto

import (
	"time"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// DispatchDeliveryRequest body de POST /api/deliveries.
type DispatchDeliveryRequest struct {
	WithdrawalID string `json:"withdrawal_id" validate:"required,max=100"`
}

// AdvanceDeliveryRequest body de POST /api/deliveries/:id/state.
type AdvanceDeliveryRequest struct {
	State  string `json:"state" validate:"required,oneof=CONFIRMED DELIVERED COMPLETED CANCELLED"`
	Reason string `json:"reason" validate:"max=500"`
}

// DeliveryResponse entrega por unidad.
type DeliveryResponse struct {
	ID                 string     `json:"id"`
	SourceWithdrawalID string     `json:"source_withdrawal_id"`
	State              string     `json:"state"`
	CancelReason       string     `json:"cancel_reason,omitempty"`
	PaymentState       string     `json:"payment_state"`
	DispatchedAt       time.Time  `json:"dispatched_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
}

// DeliveryFromEntity mapea una entrega.
func DeliveryFromEntity(d *entity.UnitDeliveryRecord) DeliveryResponse {
	return DeliveryResponse{
		ID:                 d.ID,
		SourceWithdrawalID: d.SourceWithdrawalID,
		State:              d.State,
		CancelReason:       d.CancelReason,
		PaymentState:       d.PaymentState,
		DispatchedAt:       d.DispatchedAt,
		ConfirmedAt:        d.ConfirmedAt,
		DeliveredAt:        d.DeliveredAt,
		CompletedAt:        d.CompletedAt,
		CancelledAt:        d.CancelledAt,
		PaidAt:             d.PaidAt,
	}
}
