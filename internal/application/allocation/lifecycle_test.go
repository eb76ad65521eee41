package allocation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

func completeEvidence() *entity.PlantingEvidence {
	return &entity.PlantingEvidence{
		Date:      time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Location:  "finca La Esperanza, lote 3",
		ProofURIs: []string{"s3://evidencias/foto-1.jpg", "  "},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida de sub-asignaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestMarkChildPlanted(t *testing.T) {
	e, u, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 10)
	res, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(4))
	require.NoError(t, err)

	_, err = u.MarkChildPlanted(ctx, res.Child.ID, &entity.PlantingEvidence{Date: time.Now(), Location: "finca"})
	assert.ErrorIs(t, err, domain.ErrMissingEvidence, "sin pruebas no se acepta")

	child, err := u.MarkChildPlanted(ctx, res.Child.ID, completeEvidence())
	require.NoError(t, err)
	assert.Equal(t, entity.ChildStatePlanted, child.LifecycleState)
	assert.Equal(t, []string{"s3://evidencias/foto-1.jpg"}, child.Evidence.ProofURIs, "las URIs vacías se descartan")

	_, err = u.MarkChildOutcome(ctx, res.Child.ID, entity.ChildStateLost, completeEvidence())
	require.ErrorIs(t, err, domain.ErrInvalidTransition, "un estado terminal no se abandona")
	var trErr *domain.TransitionError
	require.True(t, errors.As(err, &trErr))
	assert.Equal(t, entity.ChildStatePlanted, trErr.Current)

	// la siembra no altera el agregado de la raíz
	got, _, err := e.GetRootAllocation(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RootStatusPartiallyResubdivided, got.Status)
}

func TestMarkChildPlanted_EvidenciaSoloEspacios(t *testing.T) {
	e, u, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 10)
	res, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(4))
	require.NoError(t, err)

	_, err = u.MarkChildPlanted(ctx, res.Child.ID, &entity.PlantingEvidence{
		Date:      time.Now(),
		Location:  "   ",
		ProofURIs: []string{"  "},
	})
	assert.ErrorIs(t, err, domain.ErrMissingEvidence, "espacios no cuentan como ubicación ni prueba")

	_, err = u.MarkChildPlanted(ctx, res.Child.ID, &entity.PlantingEvidence{
		Date:      time.Now(),
		Location:  "finca",
		ProofURIs: []string{" ", "\t"},
	})
	assert.ErrorIs(t, err, domain.ErrMissingEvidence)

	child, err := e.GetChildAllocation(ctx, res.Child.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ChildStateDistributed, child.LifecycleState, "el rechazo no cambia el estado")

	child, err = u.MarkChildPlanted(ctx, res.Child.ID, &entity.PlantingEvidence{
		Date:      time.Now(),
		Location:  "  vereda El Roble ",
		ProofURIs: []string{" s3://evidencias/a.jpg "},
	})
	require.NoError(t, err)
	assert.Equal(t, "vereda El Roble", child.Evidence.Location)
	assert.Equal(t, []string{"s3://evidencias/a.jpg"}, child.Evidence.ProofURIs)
}

func TestMarkChildOutcome_OtroExigeNotas(t *testing.T) {
	e, u, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 10)
	res, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(4))
	require.NoError(t, err)

	_, err = u.MarkChildOutcome(ctx, res.Child.ID, entity.ChildStateOther, completeEvidence())
	assert.ErrorIs(t, err, domain.ErrMissingEvidence)

	ev := completeEvidence()
	ev.Notes = "cedido a la escuela rural"
	child, err := u.MarkChildOutcome(ctx, res.Child.ID, entity.ChildStateOther, ev)
	require.NoError(t, err)
	assert.Equal(t, entity.ChildStateOther, child.LifecycleState)

	_, err = u.MarkChildOutcome(ctx, res.Child.ID, "SOLD", ev)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMarkChildOutcome_ResiembraEsTerminal(t *testing.T) {
	e, u, _ := newEngine(t)
	ctx := context.Background()
	root := seedRoot(t, e, 10)
	first, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(4))
	require.NoError(t, err)

	_, err = u.MarkChildOutcome(ctx, first.Child.ID, entity.ChildStateReplanted, completeEvidence())
	require.NoError(t, err)
	_, err = u.MarkChildPlanted(ctx, first.Child.ID, completeEvidence())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// el siguiente ciclo es una sub-asignación nueva contra la misma raíz
	second, err := e.CreateChildAllocation(ctx, root.ID, "agri-1", quantity.FromInt(4))
	require.NoError(t, err)
	assert.True(t, second.RemainingCapacity.Equal(quantity.FromInt(2)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Entregas
// ──────────────────────────────────────────────────────────────────────────────

func TestDelivery_FlujoCompletoYPago(t *testing.T) {
	e, u, _ := newEngine(t)
	ctx := context.Background()
	stock := seedStock(t, e, "lote-1", 10)
	w, err := e.CreateWithdrawal(ctx, stock.ID, "hilandería", quantity.FromInt(2))
	require.NoError(t, err)

	d, err := u.DispatchDelivery(ctx, w.Withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryInTransit, d.State)
	assert.Equal(t, entity.PaymentUnpaid, d.PaymentState)

	_, err = u.DispatchDelivery(ctx, w.Withdrawal.ID)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "una salida tiene una sola entrega")

	_, err = u.MarkDeliveryPaid(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotYetDelivered)

	d, err = u.AdvanceDelivery(ctx, d.ID, entity.DeliveryConfirmed, "")
	require.NoError(t, err)
	require.NotNil(t, d.ConfirmedAt)

	_, err = u.AdvanceDelivery(ctx, d.ID, entity.DeliveryInTransit, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se retrocede")

	d, err = u.AdvanceDelivery(ctx, d.ID, entity.DeliveryDelivered, "")
	require.NoError(t, err)
	require.NotNil(t, d.DeliveredAt)

	d, err = u.MarkDeliveryPaid(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, d.PaymentState)
	require.NotNil(t, d.PaidAt)

	_, err = u.MarkDeliveryPaid(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	d, err = u.AdvanceDelivery(ctx, d.ID, entity.DeliveryCompleted, "")
	require.NoError(t, err)

	for _, target := range []string{entity.DeliveryInTransit, entity.DeliveryConfirmed, entity.DeliveryDelivered, entity.DeliveryCompleted, entity.DeliveryCancelled} {
		_, err = u.AdvanceDelivery(ctx, d.ID, target, "motivo")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "COMPLETED -> %s debe fallar", target)
	}

	got, err := u.GetDelivery(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DeliveryCompleted, got.State)
}

func TestDelivery_CancelacionExigeMotivo(t *testing.T) {
	e, u, _ := newEngine(t)
	ctx := context.Background()
	stock := seedStock(t, e, "lote-1", 10)
	w, err := e.CreateWithdrawal(ctx, stock.ID, "hilandería", quantity.FromInt(2))
	require.NoError(t, err)
	d, err := u.DispatchDelivery(ctx, w.Withdrawal.ID)
	require.NoError(t, err)

	_, err = u.AdvanceDelivery(ctx, d.ID, entity.DeliveryCancelled, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	d, err = u.AdvanceDelivery(ctx, d.ID, entity.DeliveryCancelled, "vehículo varado")
	require.NoError(t, err)
	assert.Equal(t, "vehículo varado", d.CancelReason)
	require.NotNil(t, d.CancelledAt)

	_, err = u.AdvanceDelivery(ctx, d.ID, entity.DeliveryConfirmed, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDispatchDelivery_SalidaInexistente(t *testing.T) {
	_, u, _ := newEngine(t)
	_, err := u.DispatchDelivery(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = u.GetDelivery(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
