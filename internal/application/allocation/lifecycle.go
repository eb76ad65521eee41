package allocation

import (
	"context"
	"strings"

	"github.com/jhoicas/distribucion-api/internal/domain"
	domainalloc "github.com/jhoicas/distribucion-api/internal/domain/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// UnitLifecycle mueve sub-asignaciones y entregas individuales por sus estados
// terminales. No toca el agregado de la raíz ni el saldo del stock.
type UnitLifecycle struct {
	deps
}

// NewUnitLifecycle construye el caso de uso.
func NewUnitLifecycle(tx TxRunner, repos Repos, cfg Config, log *logger.Logger) *UnitLifecycle {
	if log != nil {
		log = log.Component("unit_lifecycle")
	}
	return &UnitLifecycle{deps: newDeps(tx, repos, cfg, log)}
}

// MarkChildPlanted DISTRIBUTED -> PLANTED con evidencia (fecha, ubicación, pruebas).
func (u *UnitLifecycle) MarkChildPlanted(ctx context.Context, childID string, evidence *entity.PlantingEvidence) (*entity.ChildAllocation, error) {
	return u.MarkChildOutcome(ctx, childID, entity.ChildStatePlanted, evidence)
}

// MarkChildOutcome DISTRIBUTED -> PLANTED | DAMAGED | REPLANTED | LOST | OTHER.
// Una resiembra queda REPLANTED y requiere una sub-asignación nueva para el siguiente ciclo.
func (u *UnitLifecycle) MarkChildOutcome(ctx context.Context, childID, target string, evidence *entity.PlantingEvidence) (*entity.ChildAllocation, error) {
	var child *entity.ChildAllocation
	err := u.run(ctx, func(ctx context.Context, r Repos) error {
		var err error
		child, err = r.Children.GetForUpdate(ctx, childID)
		if err != nil {
			return err
		}
		if child == nil {
			return domain.ErrNotFound
		}
		ev := evidence.Normalized()
		if err := domainalloc.ValidateChildOutcome(child, target, ev); err != nil {
			return err
		}
		child.LifecycleState = target
		child.Evidence = ev
		child.UpdatedAt = u.now()
		return r.Children.UpdateLifecycle(ctx, child)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().
		Str("child_id", childID).
		Str("state", target).
		Int("proofs", len(child.Evidence.ProofURIs)).
		Msg("ciclo de vida actualizado")
	return child, nil
}

// DispatchDelivery abre el seguimiento de una salida (IN_TRANSIT, UNPAID).
// Una salida tiene como máximo una entrega.
func (u *UnitLifecycle) DispatchDelivery(ctx context.Context, withdrawalID string) (*entity.UnitDeliveryRecord, error) {
	var d *entity.UnitDeliveryRecord
	err := u.run(ctx, func(ctx context.Context, r Repos) error {
		w, err := r.Withdrawals.GetByID(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if w == nil {
			return domain.ErrNotFound
		}
		now := u.now()
		d = &entity.UnitDeliveryRecord{
			ID:                 u.newID(),
			SourceWithdrawalID: withdrawalID,
			State:              entity.DeliveryInTransit,
			PaymentState:       entity.PaymentUnpaid,
			DispatchedAt:       now,
			UpdatedAt:          now,
		}
		return r.Deliveries.Create(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("delivery_id", d.ID).Str("withdrawal_id", withdrawalID).Msg("entrega despachada")
	return d, nil
}

// AdvanceDelivery aplica la tabla monotónica de transiciones.
// CANCELLED exige motivo; COMPLETED y CANCELLED son terminales.
func (u *UnitLifecycle) AdvanceDelivery(ctx context.Context, id, target, reason string) (*entity.UnitDeliveryRecord, error) {
	var d *entity.UnitDeliveryRecord
	err := u.run(ctx, func(ctx context.Context, r Repos) error {
		var err error
		d, err = r.Deliveries.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound
		}
		if err := domainalloc.ValidateDeliveryAdvance(d.State, target, reason); err != nil {
			return err
		}
		d.State = target
		if target == entity.DeliveryCancelled {
			d.CancelReason = strings.TrimSpace(reason)
		}
		d.Stamp(target, u.now())
		return r.Deliveries.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("delivery_id", id).Str("state", target).Msg("entrega actualizada")
	return d, nil
}

// MarkDeliveryPaid UNPAID -> PAID; solo con la entrega DELIVERED o COMPLETED.
func (u *UnitLifecycle) MarkDeliveryPaid(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error) {
	var d *entity.UnitDeliveryRecord
	err := u.run(ctx, func(ctx context.Context, r Repos) error {
		var err error
		d, err = r.Deliveries.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound
		}
		if err := domainalloc.ValidatePayment(d); err != nil {
			return err
		}
		now := u.now()
		d.PaymentState = entity.PaymentPaid
		d.PaidAt = &now
		d.UpdatedAt = now
		return r.Deliveries.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	u.log.Info().Str("delivery_id", id).Msg("entrega pagada")
	return d, nil
}

// GetDelivery devuelve una entrega.
func (u *UnitLifecycle) GetDelivery(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error) {
	var d *entity.UnitDeliveryRecord
	err := u.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		d, err = r.Deliveries.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return d, err
}
