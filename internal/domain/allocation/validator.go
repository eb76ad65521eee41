// Package allocation contiene los servicios de dominio puros del motor de
// asignación: validación de conservación, derivación de estados y tablas de
// transición del ciclo de vida. Ninguna función aquí hace I/O.
package allocation

import (
	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// ValidateChildCreate verifica que existingChildrenSum + newQty <= parent.Quantity.
// Devuelve *domain.CapacityError (ErrExceedsAllocation) con la capacidad restante.
func ValidateChildCreate(parent *entity.RootAllocation, existingChildrenSum, newQty quantity.Quantity) error {
	if parent == nil {
		return domain.ErrNotFound
	}
	if !newQty.IsPositive() {
		return domain.ErrInvalidInput
	}
	if parent.IsCancelled() {
		return &domain.TransitionError{
			Kind:    domain.ErrInvalidTransition,
			Current: parent.Status,
			Target:  "SUBDIVIDE",
		}
	}
	if existingChildrenSum.Add(newQty).GreaterThan(parent.Quantity) {
		return &domain.CapacityError{
			Kind:      domain.ErrExceedsAllocation,
			Requested: newQty,
			Remaining: parent.Quantity.SubFloor(existingChildrenSum),
		}
	}
	return nil
}

// ValidateWithdrawal verifica newQty <= stock.RemainingQuantity.
// Devuelve *domain.CapacityError (ErrInsufficientStock) con el saldo real.
func ValidateWithdrawal(stock *entity.StockRecord, newQty quantity.Quantity) error {
	if stock == nil {
		return domain.ErrNotFound
	}
	if !newQty.IsPositive() {
		return domain.ErrInvalidInput
	}
	if stock.Status == entity.StockStatusWithdrawn {
		return &domain.TransitionError{
			Kind:    domain.ErrInvalidTransition,
			Current: stock.Status,
			Target:  "WITHDRAW",
		}
	}
	if newQty.GreaterThan(stock.RemainingQuantity) {
		return &domain.CapacityError{
			Kind:      domain.ErrInsufficientStock,
			Requested: newQty,
			Remaining: stock.RemainingQuantity,
		}
	}
	return nil
}
