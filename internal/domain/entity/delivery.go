package entity

import "time"

// Estados de la entrega por unidad.
const (
	DeliveryInTransit = "IN_TRANSIT"
	DeliveryConfirmed = "CONFIRMED"
	DeliveryDelivered = "DELIVERED"
	DeliveryCompleted = "COMPLETED"
	DeliveryCancelled = "CANCELLED"
)

// Eje de pago (ortogonal al estado).
const (
	PaymentUnpaid = "UNPAID"
	PaymentPaid   = "PAID"
)

// UnitDeliveryRecord seguimiento de una salida hasta el pago.
type UnitDeliveryRecord struct {
	ID                 string
	SourceWithdrawalID string
	State              string
	CancelReason       string
	PaymentState       string
	DispatchedAt       time.Time
	ConfirmedAt        *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	PaidAt             *time.Time
	UpdatedAt          time.Time
}

// Stamp registra la marca de tiempo de la transición al estado indicado.
func (d *UnitDeliveryRecord) Stamp(state string, at time.Time) {
	t := at
	switch state {
	case DeliveryConfirmed:
		d.ConfirmedAt = &t
	case DeliveryDelivered:
		d.DeliveredAt = &t
	case DeliveryCompleted:
		d.CompletedAt = &t
	case DeliveryCancelled:
		d.CancelledAt = &t
	}
	d.UpdatedAt = at
}
