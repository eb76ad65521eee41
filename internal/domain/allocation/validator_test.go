package allocation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

func root(qty int64) *entity.RootAllocation {
	return &entity.RootAllocation{ID: "r1", Quantity: quantity.FromInt(qty), Status: entity.RootStatusAllocated}
}

func TestValidateChildCreate_DentroDeCapacidad(t *testing.T) {
	err := allocation.ValidateChildCreate(root(100), quantity.FromInt(60), quantity.FromInt(40))
	assert.NoError(t, err, "60 + 40 == 100 debe aceptarse")
}

func TestValidateChildCreate_ExcedeDevuelveRestante(t *testing.T) {
	err := allocation.ValidateChildCreate(root(100), quantity.FromInt(60), quantity.FromInt(50))
	require.ErrorIs(t, err, domain.ErrExceedsAllocation)

	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, capErr.Remaining.Equal(quantity.FromInt(40)), "restante esperado 40, obtenido %s", capErr.Remaining)
	assert.True(t, capErr.Requested.Equal(quantity.FromInt(50)))
}

func TestValidateChildCreate_RaizCancelada(t *testing.T) {
	r := root(100)
	r.Status = entity.RootStatusCancelled
	err := allocation.ValidateChildCreate(r, quantity.Zero, quantity.FromInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestValidateChildCreate_CantidadCero(t *testing.T) {
	err := allocation.ValidateChildCreate(root(100), quantity.Zero, quantity.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateWithdrawal(t *testing.T) {
	stock := &entity.StockRecord{
		InitialQuantity:   quantity.FromInt(20),
		RemainingQuantity: quantity.FromInt(5),
		Status:            entity.StockStatusPartiallyDistributed,
	}
	assert.NoError(t, allocation.ValidateWithdrawal(stock, quantity.FromInt(5)))

	err := allocation.ValidateWithdrawal(stock, quantity.MustParse("5.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, capErr.Remaining.Equal(quantity.FromInt(5)))

	stock.Status = entity.StockStatusWithdrawn
	assert.ErrorIs(t, allocation.ValidateWithdrawal(stock, quantity.FromInt(1)), domain.ErrInvalidTransition)
}
