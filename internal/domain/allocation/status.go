package allocation

import (
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// DeriveRootStatus única fuente de verdad del estado de una asignación raíz.
//
//	cancelled          -> CANCELLED
//	sum == 0           -> ALLOCATED
//	0 < sum < quantity -> PARTIALLY_RESUBDIVIDED
//	sum >= quantity    -> FULLY_RESUBDIVIDED
func DeriveRootStatus(total, liveChildrenSum quantity.Quantity, cancelled bool) string {
	switch {
	case cancelled:
		return entity.RootStatusCancelled
	case liveChildrenSum.IsZero():
		return entity.RootStatusAllocated
	case liveChildrenSum.LessThan(total):
		return entity.RootStatusPartiallyResubdivided
	default:
		return entity.RootStatusFullyResubdivided
	}
}

// DeriveStockStatus única fuente de verdad del estado de un registro de stock.
// Compara el saldo con la cantidad inicial.
func DeriveStockStatus(initial, remaining quantity.Quantity, withdrawn bool) string {
	switch {
	case withdrawn:
		return entity.StockStatusWithdrawn
	case remaining.IsZero():
		return entity.StockStatusFullyDistributed
	case remaining.Equal(initial):
		return entity.StockStatusStocked
	default:
		return entity.StockStatusPartiallyDistributed
	}
}

// RemainingCapacity capacidad aún sub-asignable de una raíz.
func RemainingCapacity(total, liveChildrenSum quantity.Quantity) quantity.Quantity {
	return total.SubFloor(liveChildrenSum)
}
