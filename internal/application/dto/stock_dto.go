package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// AdmitBatchRequest body de POST /api/stock. Quantity cero toma la del lote.
type AdmitBatchRequest struct {
	SourceBatchID string          `json:"source_batch_id" validate:"required,max=100"`
	Quantity      decimal.Decimal `json:"quantity" validate:"nonnegative_decimal"`
}

// CreateWithdrawalRequest body de POST /api/stock/:id/withdrawals.
type CreateWithdrawalRequest struct {
	Recipient string          `json:"recipient" validate:"required,max=200"`
	Quantity  decimal.Decimal `json:"quantity" validate:"positive_decimal"`
}

// MarkWithdrawnRequest body de POST /api/stock/:id/withdrawn.
type MarkWithdrawnRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// SourceBatchRequest body de PUT /api/source-batches/:id (sincronización con calidad).
type SourceBatchRequest struct {
	ResourceKind      string          `json:"resource_kind" validate:"required,max=100"`
	Quantity          decimal.Decimal `json:"quantity" validate:"positive_decimal"`
	VerificationState string          `json:"verification_state" validate:"required,oneof=PENDING VERIFIED REJECTED"`
}

// StockRecordResponse registro de stock.
type StockRecordResponse struct {
	ID                string            `json:"id"`
	SourceBatchID     string            `json:"source_batch_id"`
	ResourceKind      string            `json:"resource_kind"`
	InitialQuantity   quantity.Quantity `json:"initial_quantity"`
	RemainingQuantity quantity.Quantity `json:"remaining_quantity"`
	Status            string            `json:"status"`
	WithdrawnReason   string            `json:"withdrawn_reason,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// StockRecordDetailResponse registro con sus salidas.
type StockRecordDetailResponse struct {
	StockRecordResponse
	Withdrawals []WithdrawalResponse `json:"withdrawals"`
}

// WithdrawalResponse salida registrada.
type WithdrawalResponse struct {
	ID            string            `json:"id"`
	StockRecordID string            `json:"stock_record_id"`
	Quantity      quantity.Quantity `json:"quantity"`
	Recipient     string            `json:"recipient"`
	CreatedAt     time.Time         `json:"created_at"`
}

// WithdrawalCreatedResponse salida con el saldo resultante.
type WithdrawalCreatedResponse struct {
	Withdrawal WithdrawalResponse  `json:"withdrawal"`
	Stock      StockRecordResponse `json:"stock"`
}

// SourceBatchResponse lote de origen.
type SourceBatchResponse struct {
	ID                string            `json:"id"`
	ResourceKind      string            `json:"resource_kind"`
	Quantity          quantity.Quantity `json:"quantity"`
	VerificationState string            `json:"verification_state"`
	IsVerified        bool              `json:"is_verified"`
	VerifiedAt        *time.Time        `json:"verified_at,omitempty"`
}

// StockFromEntity mapea un registro de stock.
func StockFromEntity(s *entity.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:                s.ID,
		SourceBatchID:     s.SourceBatchID,
		ResourceKind:      s.ResourceKind,
		InitialQuantity:   s.InitialQuantity,
		RemainingQuantity: s.RemainingQuantity,
		Status:            s.Status,
		WithdrawnReason:   s.WithdrawnReason,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

// WithdrawalFromEntity mapea una salida.
func WithdrawalFromEntity(w *entity.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:            w.ID,
		StockRecordID: w.StockRecordID,
		Quantity:      w.Quantity,
		Recipient:     w.Recipient,
		CreatedAt:     w.CreatedAt,
	}
}

// SourceBatchFromEntity mapea un lote; is_verified se deriva, nunca se almacena.
func SourceBatchFromEntity(b *entity.SourceBatch) SourceBatchResponse {
	return SourceBatchResponse{
		ID:                b.ID,
		ResourceKind:      b.ResourceKind,
		Quantity:          b.Quantity,
		VerificationState: b.VerificationState,
		IsVerified:        b.IsVerified(),
		VerifiedAt:        b.VerifiedAt,
	}
}
