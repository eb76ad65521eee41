package allocation

import (
	"strings"

	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// childOutcomes estados terminales alcanzables desde DISTRIBUTED.
// REPLANTED también es terminal: una resiembra exige una sub-asignación nueva.
var childOutcomes = map[string]bool{
	entity.ChildStatePlanted:   true,
	entity.ChildStateDamaged:   true,
	entity.ChildStateReplanted: true,
	entity.ChildStateLost:      true,
	entity.ChildStateOther:     true,
}

// ValidateChildOutcome valida la transición DISTRIBUTED -> target y la evidencia.
func ValidateChildOutcome(child *entity.ChildAllocation, target string, evidence *entity.PlantingEvidence) error {
	if child == nil {
		return domain.ErrNotFound
	}
	if !childOutcomes[target] {
		return domain.ErrInvalidInput
	}
	if child.LifecycleState != entity.ChildStateDistributed {
		return &domain.TransitionError{
			Kind:    domain.ErrInvalidTransition,
			Current: child.LifecycleState,
			Target:  target,
		}
	}
	if !evidence.IsComplete() {
		return domain.ErrMissingEvidence
	}
	if target == entity.ChildStateOther && strings.TrimSpace(evidence.Notes) == "" {
		return domain.ErrMissingEvidence
	}
	return nil
}

// ValidateChildRetraction una sub-asignación solo se retira mientras está DISTRIBUTED.
func ValidateChildRetraction(child *entity.ChildAllocation) error {
	if child.LifecycleState != entity.ChildStateDistributed {
		return &domain.TransitionError{
			Kind:    domain.ErrInvalidTransition,
			Current: child.LifecycleState,
			Target:  "RETRACTED",
		}
	}
	return nil
}

// deliveryRank orden monotónico de la entrega. CANCELLED queda fuera del orden.
var deliveryRank = map[string]int{
	entity.DeliveryInTransit: 1,
	entity.DeliveryConfirmed: 2,
	entity.DeliveryDelivered: 3,
	entity.DeliveryCompleted: 4,
}

// IsDeliveryTerminal COMPLETED y CANCELLED no admiten más transiciones.
func IsDeliveryTerminal(state string) bool {
	return state == entity.DeliveryCompleted || state == entity.DeliveryCancelled
}

// ValidateDeliveryAdvance valida current -> target:
//   - solo hacia adelante en IN_TRANSIT -> CONFIRMED -> DELIVERED -> COMPLETED
//   - CANCELLED desde cualquier estado no terminal, con motivo obligatorio
func ValidateDeliveryAdvance(current, target, reason string) error {
	if _, ok := deliveryRank[target]; !ok && target != entity.DeliveryCancelled {
		return domain.ErrInvalidInput
	}
	invalid := &domain.TransitionError{Kind: domain.ErrInvalidTransition, Current: current, Target: target}
	if IsDeliveryTerminal(current) {
		return invalid
	}
	if target == entity.DeliveryCancelled {
		if strings.TrimSpace(reason) == "" {
			return domain.ErrInvalidInput
		}
		return nil
	}
	if deliveryRank[target] <= deliveryRank[current] {
		return invalid
	}
	return nil
}

// ValidatePayment el pago solo se registra con la entrega DELIVERED o COMPLETED.
func ValidatePayment(d *entity.UnitDeliveryRecord) error {
	if d.PaymentState == entity.PaymentPaid {
		return &domain.TransitionError{Kind: domain.ErrInvalidTransition, Current: entity.PaymentPaid, Target: entity.PaymentPaid}
	}
	if d.State != entity.DeliveryDelivered && d.State != entity.DeliveryCompleted {
		return &domain.TransitionError{Kind: domain.ErrNotYetDelivered, Current: d.State, Target: entity.PaymentPaid}
	}
	return nil
}
