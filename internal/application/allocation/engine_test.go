package allocation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/internal/infrastructure/memory"
)

func newEngine(t *testing.T) (*allocation.AllocationEngine, *allocation.UnitLifecycle, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cfg := allocation.Config{StorageTimeout: 2 * time.Second}
	return allocation.NewAllocationEngine(store, store.Repos(), cfg, nil),
		allocation.NewUnitLifecycle(store, store.Repos(), cfg, nil),
		store
}

func seedRoot(t *testing.T, e *allocation.AllocationEngine, qty int64) *entity.RootAllocation {
	t.Helper()
	root, err := e.CreateRootAllocation(context.Background(), allocation.CreateRootInput{
		ResourceKind:  "plantulas",
		Quantity:      quantity.FromInt(qty),
		DistributorID: "dist-1",
		RecipientID:   "asoc-1",
	})
	require.NoError(t, err)
	return root
}

func seedStock(t *testing.T, e *allocation.AllocationEngine, batchID string, qty int64) *entity.StockRecord {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.UpsertSourceBatch(ctx, &entity.SourceBatch{
		ID:                batchID,
		ResourceKind:      "fibra",
		Quantity:          quantity.FromInt(qty),
		VerificationState: entity.BatchVerificationVerified,
	}))
	stock, err := e.AdmitBatchToStock(ctx, batchID, quantity.Zero)
	require.NoError(t, err)
	return stock
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación raíz -> sub-asignaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateChildAllocation_Escenario100_60_50_40(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 100)
	assert.Equal(t, entity.RootStatusAllocated, root.Status)

	res, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(60))
	require.NoError(t, err)
	assert.Equal(t, entity.RootStatusPartiallyResubdivided, res.Parent.Status)
	assert.True(t, res.RemainingCapacity.Equal(quantity.FromInt(40)))

	_, err = e.CreateChildAllocation(ctx, root.ID, "agri-2", quantity.FromInt(50))
	require.ErrorIs(t, err, domain.ErrExceedsAllocation)
	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, capErr.Remaining.Equal(quantity.FromInt(40)), "debe informar la capacidad restante")

	res, err = e.CreateChildAllocation(ctx, root.ID, "agri-2", quantity.FromInt(40))
	require.NoError(t, err)
	assert.Equal(t, entity.RootStatusFullyResubdivided, res.Parent.Status)
	assert.True(t, res.RemainingCapacity.IsZero())

	got, children, err := e.GetRootAllocation(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RootStatusFullyResubdivided, got.Status, "el estado debe quedar persistido")
	assert.Len(t, children, 2, "el rechazo no debe dejar filas")
}

func TestCreateChildAllocation_RaizInexistente(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.CreateChildAllocation(context.Background(), "no-existe", "agri-1", quantity.FromInt(1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateChildAllocation_ConcurrenteNoExcedeLaRaiz(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 10)

	var ok, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.CreateChildAllocation(ctx, root.ID, fmt.Sprintf("agri-%d", i), quantity.FromInt(1))
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, domain.ErrExceedsAllocation):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 10, ok)
	assert.EqualValues(t, 15, rejected)
	got, children, err := e.GetRootAllocation(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, children, 10)
	assert.Equal(t, entity.RootStatusFullyResubdivided, got.Status)
}

func TestDeleteChildAllocation_RecalculaEstado(t *testing.T) {
	e, u, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 100)

	a, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(60))
	require.NoError(t, err)
	b, err := e.CreateChildAllocation(ctx, root.ID, "agri-2", quantity.FromInt(40))
	require.NoError(t, err)

	parent, err := e.DeleteChildAllocation(ctx, b.Child.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RootStatusPartiallyResubdivided, parent.Status)

	_, err = u.MarkChildPlanted(ctx, a.Child.ID, completeEvidence())
	require.NoError(t, err)
	_, err = e.DeleteChildAllocation(ctx, a.Child.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "una sub-asignación sembrada no se retira")
}

func TestDeleteRootAllocation_ConDependientes(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 100)
	child, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(10))
	require.NoError(t, err)

	err = e.DeleteRootAllocation(ctx, root.ID)
	require.ErrorIs(t, err, domain.ErrHasDependents)
	var depErr *domain.DependentsError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, 1, depErr.Count)

	_, err = e.CancelRootAllocation(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrHasDependents)

	_, err = e.DeleteChildAllocation(ctx, child.Child.ID)
	require.NoError(t, err)
	require.NoError(t, e.DeleteRootAllocation(ctx, root.ID))

	_, _, err = e.GetRootAllocation(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelRootAllocation_NoAdmiteHijos(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 100)

	cancelled, err := e.CancelRootAllocation(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RootStatusCancelled, cancelled.Status)

	_, err = e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = e.CancelRootAllocation(ctx, root.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "cancelar dos veces no es válido")
}

func TestUpdateRootRemarks(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 5)

	got, err := e.UpdateRootRemarks(ctx, root.ID, "entrega en vereda El Carmen")
	require.NoError(t, err)
	assert.Equal(t, "entrega en vereda El Carmen", got.Remarks)
	assert.True(t, got.Quantity.Equal(quantity.FromInt(5)))

	_, err = e.UpdateRootRemarks(ctx, "no-existe", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListRootAllocations(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	seedRoot(t, e, 1)
	seedRoot(t, e, 2)

	list, err := e.ListRootAllocations(ctx, "dist-1", "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = e.ListRootAllocations(ctx, "", "asoc-1", 1, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = e.ListRootAllocations(ctx, "", "", 10, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock -> salidas
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateWithdrawal_Escenario20_20_1(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	stock := seedStock(t, e, "lote-1", 20)
	assert.Equal(t, entity.StockStatusStocked, stock.Status)

	res, err := e.CreateWithdrawal(ctx, stock.ID, "hilandería", quantity.FromInt(20))
	require.NoError(t, err)
	assert.True(t, res.Stock.RemainingQuantity.IsZero())
	assert.Equal(t, entity.StockStatusFullyDistributed, res.Stock.Status)

	_, err = e.CreateWithdrawal(ctx, stock.ID, "hilandería", quantity.FromInt(1))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var capErr *domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.True(t, capErr.Remaining.IsZero())

	_, withdrawals, err := e.GetStockRecord(ctx, stock.ID)
	require.NoError(t, err)
	assert.Len(t, withdrawals, 1)
}

func TestCreateWithdrawal_Parcial(t *testing.T) {
	e, _, _ := newEngine(t)
	stock := seedStock(t, e, "lote-1", 20)

	res, err := e.CreateWithdrawal(context.Background(), stock.ID, "hilandería", quantity.MustParse("7.5"))
	require.NoError(t, err)
	assert.Equal(t, entity.StockStatusPartiallyDistributed, res.Stock.Status)
	assert.Equal(t, "12.5", res.Stock.RemainingQuantity.String())
}

func TestCreateWithdrawal_SinSobregiroConcurrente(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	stock := seedStock(t, e, "lote-1", 100)

	var ok, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 150; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.CreateWithdrawal(ctx, stock.ID, "hilandería", quantity.FromInt(1))
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, domain.ErrInsufficientStock):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 100, ok, "exactamente 100 salidas deben confirmarse")
	assert.EqualValues(t, 50, rejected)

	got, withdrawals, err := e.GetStockRecord(ctx, stock.ID)
	require.NoError(t, err)
	assert.True(t, got.RemainingQuantity.IsZero())
	assert.Equal(t, entity.StockStatusFullyDistributed, got.Status)
	assert.Len(t, withdrawals, 100)
}

func TestAdmitBatchToStock_NoVerificado(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.UpsertSourceBatch(ctx, &entity.SourceBatch{
		ID:                "lote-p",
		ResourceKind:      "fibra",
		Quantity:          quantity.FromInt(10),
		VerificationState: entity.BatchVerificationPending,
	}))

	_, err := e.AdmitBatchToStock(ctx, "lote-p", quantity.Zero)
	require.ErrorIs(t, err, domain.ErrNotVerified)
	var trErr *domain.TransitionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, entity.BatchVerificationPending, trErr.Current)

	_, err = e.AdmitBatchToStock(ctx, "no-existe", quantity.Zero)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdmitBatchToStock_CantidadMayorAlLote(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	seedStock(t, e, "lote-1", 10)
	require.NoError(t, e.UpsertSourceBatch(ctx, &entity.SourceBatch{
		ID: "lote-2", ResourceKind: "fibra", Quantity: quantity.FromInt(10),
		VerificationState: entity.BatchVerificationVerified,
	}))
	_, err := e.AdmitBatchToStock(ctx, "lote-2", quantity.FromInt(11))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdmitBatchToStock_IdempotenteConcurrente(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.UpsertSourceBatch(ctx, &entity.SourceBatch{
		ID: "lote-1", ResourceKind: "fibra", Quantity: quantity.FromInt(10),
		VerificationState: entity.BatchVerificationVerified,
	}))

	var ok, dup int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.AdmitBatchToStock(ctx, "lote-1", quantity.Zero)
			switch {
			case err == nil:
				atomic.AddInt64(&ok, 1)
			case errors.Is(err, domain.ErrAlreadyAdmitted):
				atomic.AddInt64(&dup, 1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok, "solo un ingreso debe confirmarse")
	assert.EqualValues(t, 19, dup)
	list, err := e.ListStockRecords(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkStockWithdrawn(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	stock := seedStock(t, e, "lote-1", 20)
	_, err := e.CreateWithdrawal(ctx, stock.ID, "hilandería", quantity.FromInt(5))
	require.NoError(t, err)

	_, err = e.MarkStockWithdrawn(ctx, stock.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el motivo es obligatorio")

	got, err := e.MarkStockWithdrawn(ctx, stock.ID, "humedad en bodega")
	require.NoError(t, err)
	assert.Equal(t, entity.StockStatusWithdrawn, got.Status)
	assert.True(t, got.RemainingQuantity.IsZero())

	_, err = e.CreateWithdrawal(ctx, stock.ID, "hilandería", quantity.FromInt(1))
	assert.Error(t, err)
	_, err = e.MarkStockWithdrawn(ctx, stock.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDeleteStockRecord(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx := context.Background()
	used := seedStock(t, e, "lote-1", 20)
	_, err := e.CreateWithdrawal(ctx, used.ID, "hilandería", quantity.FromInt(1))
	require.NoError(t, err)
	assert.ErrorIs(t, e.DeleteStockRecord(ctx, used.ID), domain.ErrHasDependents)

	unused := seedStock(t, e, "lote-2", 5)
	require.NoError(t, e.DeleteStockRecord(ctx, unused.ID))

	// borrado el registro, el lote puede volver a ingresar
	_, err = e.AdmitBatchToStock(ctx, "lote-2", quantity.Zero)
	assert.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Almacenamiento
// ──────────────────────────────────────────────────────────────────────────────

func TestStorageTimeout_DevuelveStorageUnavailable(t *testing.T) {
	store := memory.NewStore()
	e := allocation.NewAllocationEngine(store, store.Repos(), allocation.Config{StorageTimeout: 30 * time.Millisecond}, nil)

	hold := make(chan struct{})
	locked := make(chan struct{})
	go func() {
		_ = store.Run(context.Background(), func(allocation.Repos) error {
			close(locked)
			<-hold
			return nil
		})
	}()
	<-locked
	defer close(hold)

	_, err := e.CreateRootAllocation(context.Background(), allocation.CreateRootInput{
		ResourceKind: "plantulas", Quantity: quantity.FromInt(1), DistributorID: "d", RecipientID: "a",
	})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestRun_FalloNoDejaEfectosParciales(t *testing.T) {
	e, _, store := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 10)

	boom := errors.New("boom")
	err := store.Run(ctx, func(r allocation.Repos) error {
		if err := r.Roots.UpdateRemarks(ctx, root.ID, "cambiado", time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, _, err := e.GetRootAllocation(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Remarks, "el rollback debe descartar la escritura")
}
