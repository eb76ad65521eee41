// Package allocation orquesta las operaciones del motor de asignación:
// validación de conservación, persistencia atómica y recálculo del estado derivado.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/distribucion-api/internal/domain"
	domainalloc "github.com/jhoicas/distribucion-api/internal/domain/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// Config parámetros de ejecución compartidos por el motor y el ciclo de vida.
type Config struct {
	StorageTimeout time.Duration
	Now            func() time.Time // nil = time.Now
	NewID          func() string    // nil = uuid v4
}

// deps dependencias comunes a AllocationEngine y UnitLifecycle.
type deps struct {
	tx      TxRunner
	repos   Repos
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

func newDeps(tx TxRunner, repos Repos, cfg Config, log *logger.Logger) deps {
	d := deps{tx: tx, repos: repos, log: log, timeout: cfg.StorageTimeout, now: cfg.Now, newID: cfg.NewID}
	if d.log == nil {
		d.log = logger.Nop()
	}
	if d.timeout <= 0 {
		d.timeout = 3 * time.Second
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.newID == nil {
		d.newID = func() string { return uuid.New().String() }
	}
	return d
}

// run ejecuta fn en una transacción con el timeout de almacenamiento.
// fn recibe el contexto con deadline; los repos deben usar ese y no el del caller.
func (d deps) run(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return classify(d.tx.Run(ctx, func(r Repos) error {
		return fn(ctx, r)
	}))
}

// read ejecuta una lectura fuera de transacción con el timeout de almacenamiento.
func (d deps) read(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return classify(fn(ctx, d.repos))
}

var domainErrors = []error{
	domain.ErrNotFound, domain.ErrInvalidInput, domain.ErrExceedsAllocation,
	domain.ErrInsufficientStock, domain.ErrAlreadyAdmitted, domain.ErrNotVerified,
	domain.ErrInvalidTransition, domain.ErrMissingEvidence, domain.ErrHasDependents,
	domain.ErrNotYetDelivered, domain.ErrStorageUnavailable, domain.ErrDuplicate,
}

// classify deja pasar los errores de dominio y convierte cualquier otro fallo
// de almacenamiento (timeout, conexión, driver) en ErrStorageUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, de := range domainErrors {
		if errors.Is(err, de) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

// AllocationEngine crea, retira y borra asignaciones raíz, sub-asignaciones,
// registros de stock y salidas. Cada operación es una sola transacción:
// leer agregado + validar + escribir + persistir estado derivado.
//
// Estrategia de consistencia por topología:
//   - raíz -> hijos: suma al leer, con la fila raíz bloqueada (SELECT FOR UPDATE).
//   - stock -> salidas: contador remaining decrementado con UPDATE condicional.
type AllocationEngine struct {
	deps
}

// NewAllocationEngine construye el motor.
func NewAllocationEngine(tx TxRunner, repos Repos, cfg Config, log *logger.Logger) *AllocationEngine {
	if log != nil {
		log = log.Component("allocation_engine")
	}
	return &AllocationEngine{deps: newDeps(tx, repos, cfg, log)}
}

// CreateRootInput datos de una asignación distribuidor -> asociación.
type CreateRootInput struct {
	ResourceKind  string
	Quantity      quantity.Quantity
	DistributorID string
	RecipientID   string
	Remarks       string
}

// CreateRootAllocation registra la asignación raíz con estado ALLOCATED.
func (e *AllocationEngine) CreateRootAllocation(ctx context.Context, in CreateRootInput) (*entity.RootAllocation, error) {
	in.ResourceKind = strings.TrimSpace(in.ResourceKind)
	if in.ResourceKind == "" || in.DistributorID == "" || in.RecipientID == "" || !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	now := e.now()
	root := &entity.RootAllocation{
		ID:            e.newID(),
		ResourceKind:  in.ResourceKind,
		Quantity:      in.Quantity,
		DistributorID: in.DistributorID,
		RecipientID:   in.RecipientID,
		Remarks:       in.Remarks,
		Status:        domainalloc.DeriveRootStatus(in.Quantity, quantity.Zero, false),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		return r.Roots.Create(ctx, root)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().
		Str("root_id", root.ID).
		Str("resource_kind", root.ResourceKind).
		Str("quantity", root.Quantity.String()).
		Str("distributor_id", root.DistributorID).
		Str("recipient_id", root.RecipientID).
		Msg("asignación raíz creada")
	return root, nil
}

// ChildResult sub-asignación creada junto al estado derivado de su raíz.
type ChildResult struct {
	Child             *entity.ChildAllocation
	Parent            *entity.RootAllocation
	RemainingCapacity quantity.Quantity
}

// CreateChildAllocation sub-divide una raíz. Bloquea la raíz, suma los hijos vivos,
// valida conservación, inserta el hijo y recalcula el estado de la raíz.
// Si excede, devuelve *domain.CapacityError con la capacidad restante.
func (e *AllocationEngine) CreateChildAllocation(ctx context.Context, parentID, recipientID string, qty quantity.Quantity) (*ChildResult, error) {
	if parentID == "" || recipientID == "" {
		return nil, domain.ErrInvalidInput
	}
	var res *ChildResult
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		parent, err := r.Roots.GetForUpdate(ctx, parentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return domain.ErrNotFound
		}
		sum, err := r.Children.SumLiveByParent(ctx, parentID)
		if err != nil {
			return err
		}
		if err := domainalloc.ValidateChildCreate(parent, sum, qty); err != nil {
			return err
		}

		now := e.now()
		child := &entity.ChildAllocation{
			ID:             e.newID(),
			ParentID:       parentID,
			Quantity:       qty,
			RecipientID:    recipientID,
			LifecycleState: entity.ChildStateDistributed,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := r.Children.Create(ctx, child); err != nil {
			return err
		}

		newSum := sum.Add(qty)
		if err := e.persistRootStatus(ctx, r, parent, newSum, now); err != nil {
			return err
		}
		res = &ChildResult{
			Child:             child,
			Parent:            parent,
			RemainingCapacity: domainalloc.RemainingCapacity(parent.Quantity, newSum),
		}
		return nil
	})
	if err != nil {
		var capErr *domain.CapacityError
		if errors.As(err, &capErr) {
			e.log.Warn().
				Str("root_id", parentID).
				Str("requested", capErr.Requested.String()).
				Str("remaining", capErr.Remaining.String()).
				Msg("sub-asignación rechazada por conservación")
		}
		return nil, err
	}
	e.log.Info().
		Str("root_id", parentID).
		Str("child_id", res.Child.ID).
		Str("quantity", qty.String()).
		Str("root_status", res.Parent.Status).
		Msg("sub-asignación creada")
	return res, nil
}

// persistRootStatus deriva el estado con DeriveRootStatus y lo escribe si cambió.
func (e *AllocationEngine) persistRootStatus(ctx context.Context, r Repos, root *entity.RootAllocation, liveSum quantity.Quantity, now time.Time) error {
	status := domainalloc.DeriveRootStatus(root.Quantity, liveSum, root.IsCancelled())
	if status == root.Status {
		return nil
	}
	if err := r.Roots.UpdateStatus(ctx, root.ID, status, now); err != nil {
		return err
	}
	root.Status = status
	root.UpdatedAt = now
	return nil
}

// DeleteChildAllocation retira una sub-asignación que sigue DISTRIBUTED y
// recalcula el estado de la raíz. Bloquea raíz y luego hijo (mismo orden que la creación).
func (e *AllocationEngine) DeleteChildAllocation(ctx context.Context, id string) (*entity.RootAllocation, error) {
	var parent *entity.RootAllocation
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		child, err := r.Children.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if child == nil {
			return domain.ErrNotFound
		}
		parent, err = r.Roots.GetForUpdate(ctx, child.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return domain.ErrNotFound
		}
		child, err = r.Children.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if child == nil {
			return domain.ErrNotFound
		}
		if err := domainalloc.ValidateChildRetraction(child); err != nil {
			return err
		}
		if err := r.Children.Delete(ctx, id); err != nil {
			return err
		}
		sum, err := r.Children.SumLiveByParent(ctx, parent.ID)
		if err != nil {
			return err
		}
		return e.persistRootStatus(ctx, r, parent, sum, e.now())
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("child_id", id).Str("root_id", parent.ID).Str("root_status", parent.Status).Msg("sub-asignación retirada")
	return parent, nil
}

// DeleteRootAllocation borra una raíz sin sub-asignaciones vivas.
func (e *AllocationEngine) DeleteRootAllocation(ctx context.Context, id string) error {
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		root, err := e.lockRootWithoutChildren(ctx, r, id)
		if err != nil {
			return err
		}
		return r.Roots.Delete(ctx, root.ID)
	})
	if err != nil {
		return err
	}
	e.log.Info().Str("root_id", id).Msg("asignación raíz eliminada")
	return nil
}

// CancelRootAllocation cancela una raíz sin sub-asignaciones vivas; no admite más hijos.
func (e *AllocationEngine) CancelRootAllocation(ctx context.Context, id string) (*entity.RootAllocation, error) {
	var root *entity.RootAllocation
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		var err error
		root, err = e.lockRootWithoutChildren(ctx, r, id)
		if err != nil {
			return err
		}
		if root.IsCancelled() {
			return &domain.TransitionError{Kind: domain.ErrInvalidTransition, Current: root.Status, Target: entity.RootStatusCancelled}
		}
		status := domainalloc.DeriveRootStatus(root.Quantity, quantity.Zero, true)
		now := e.now()
		if err := r.Roots.UpdateStatus(ctx, root.ID, status, now); err != nil {
			return err
		}
		root.Status = status
		root.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("root_id", id).Msg("asignación raíz cancelada")
	return root, nil
}

func (e *AllocationEngine) lockRootWithoutChildren(ctx context.Context, r Repos, id string) (*entity.RootAllocation, error) {
	root, err := r.Roots.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, domain.ErrNotFound
	}
	n, err := r.Children.CountByParent(ctx, id)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, &domain.DependentsError{Count: n}
	}
	return root, nil
}

// UpdateRootRemarks único campo editable de una raíz (la cantidad es inmutable).
func (e *AllocationEngine) UpdateRootRemarks(ctx context.Context, id, remarks string) (*entity.RootAllocation, error) {
	var root *entity.RootAllocation
	err := e.run(ctx, func(ctx context.Context, r Repos) error {
		var err error
		root, err = r.Roots.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if root == nil {
			return domain.ErrNotFound
		}
		now := e.now()
		if err := r.Roots.UpdateRemarks(ctx, id, remarks, now); err != nil {
			return err
		}
		root.Remarks = remarks
		root.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}

// GetRootAllocation devuelve la raíz con sus sub-asignaciones (lectura sin bloqueo).
func (e *AllocationEngine) GetRootAllocation(ctx context.Context, id string) (*entity.RootAllocation, []*entity.ChildAllocation, error) {
	var (
		root     *entity.RootAllocation
		children []*entity.ChildAllocation
	)
	err := e.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		root, err = r.Roots.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if root == nil {
			return domain.ErrNotFound
		}
		children, err = r.Children.ListByParent(ctx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return root, children, nil
}

// GetChildAllocation devuelve una sub-asignación.
func (e *AllocationEngine) GetChildAllocation(ctx context.Context, id string) (*entity.ChildAllocation, error) {
	var child *entity.ChildAllocation
	err := e.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		child, err = r.Children.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if child == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	return child, err
}

// ListRootAllocations lista raíces por distribuidor o, si distributorID está vacío, por receptor.
func (e *AllocationEngine) ListRootAllocations(ctx context.Context, distributorID, recipientID string, limit, offset int) ([]*entity.RootAllocation, error) {
	if distributorID == "" && recipientID == "" {
		return nil, domain.ErrInvalidInput
	}
	var list []*entity.RootAllocation
	err := e.read(ctx, func(ctx context.Context, r Repos) error {
		var err error
		if distributorID != "" {
			list, err = r.Roots.ListByDistributor(ctx, distributorID, limit, offset)
		} else {
			list, err = r.Roots.ListByRecipient(ctx, recipientID, limit, offset)
		}
		return err
	})
	return list, err
}
