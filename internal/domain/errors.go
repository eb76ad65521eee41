package domain

import (
	"errors"
	"fmt"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrForbidden          = errors.New("acceso denegado")
	ErrExceedsAllocation  = errors.New("la cantidad supera lo asignado")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrAlreadyAdmitted    = errors.New("el lote ya fue ingresado a stock")
	ErrNotVerified        = errors.New("el lote no está verificado")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
	ErrMissingEvidence    = errors.New("faltan evidencias")
	ErrHasDependents      = errors.New("el registro tiene dependientes activos")
	ErrNotYetDelivered    = errors.New("la entrega aún no se ha completado")
	ErrStorageUnavailable = errors.New("almacenamiento no disponible")
	ErrDuplicate          = errors.New("recurso duplicado")
)

// CapacityError rechazo por conservación. Lleva la capacidad restante para que
// el caller pueda informar "solo quedan N" sin otra lectura.
type CapacityError struct {
	Kind      error // ErrExceedsAllocation o ErrInsufficientStock
	Requested quantity.Quantity
	Remaining quantity.Quantity
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: solicitado %s, disponible %s", e.Kind, e.Requested, e.Remaining)
}

func (e *CapacityError) Unwrap() error { return e.Kind }

// TransitionError rechazo de ciclo de vida con el estado actual del registro.
type TransitionError struct {
	Kind    error // ErrInvalidTransition o ErrNotYetDelivered
	Current string
	Target  string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", e.Kind, e.Current, e.Target)
}

func (e *TransitionError) Unwrap() error { return e.Kind }

// DependentsError rechazo de borrado con el número de dependientes vivos.
type DependentsError struct {
	Count int
}

func (e *DependentsError) Error() string {
	return fmt.Sprintf("%s: %d", ErrHasDependents, e.Count)
}

func (e *DependentsError) Unwrap() error { return ErrHasDependents }
