// Package memory implementa los repositorios del motor en memoria, para
// desarrollo y tests (STORE_DRIVER=memory). Las transacciones son
// serializables: un único escritor a la vez escribe sobre el estado con un
// diario de deshacer que se aplica si la función falla.
package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

var _ allocation.TxRunner = (*Store)(nil)

type state struct {
	roots       map[string]entity.RootAllocation
	children    map[string]entity.ChildAllocation
	stock       map[string]entity.StockRecord
	stockByLot  map[string]string // source_batch_id -> stock id (índice único)
	withdrawals map[string]entity.Withdrawal
	deliveries  map[string]entity.UnitDeliveryRecord
	deliveryByW map[string]string // source_withdrawal_id -> delivery id (índice único)
	batches     map[string]entity.SourceBatch

	inTx bool
	undo []func()
}

func newState() *state {
	return &state{
		roots:       map[string]entity.RootAllocation{},
		children:    map[string]entity.ChildAllocation{},
		stock:       map[string]entity.StockRecord{},
		stockByLot:  map[string]string{},
		withdrawals: map[string]entity.Withdrawal{},
		deliveries:  map[string]entity.UnitDeliveryRecord{},
		deliveryByW: map[string]string{},
		batches:     map[string]entity.SourceBatch{},
	}
}

// put escribe m[k] registrando cómo deshacerlo.
func put[K comparable, V any](st *state, m map[K]V, k K, v V) {
	remember(st, m, k)
	m[k] = v
}

// del borra m[k] registrando cómo deshacerlo.
func del[K comparable, V any](st *state, m map[K]V, k K) {
	if _, ok := m[k]; !ok {
		return
	}
	remember(st, m, k)
	delete(m, k)
}

// remember anota el valor previo de m[k] si hay una transacción abierta.
func remember[K comparable, V any](st *state, m map[K]V, k K) {
	if !st.inTx {
		return
	}
	prev, existed := m[k]
	st.undo = append(st.undo, func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// rollback revierte las escrituras anotadas, de la última a la primera.
func (st *state) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
}

func (st *state) begin() { st.inTx, st.undo = true, nil }
func (st *state) end()   { st.inTx, st.undo = false, nil }

// Store almacenamiento en memoria de un solo proceso, sin persistencia.
// Un canal de capacidad 1 serializa las transacciones y también las lecturas;
// la espera termina si vence el contexto. Producción usa postgres.
type Store struct {
	sem   chan struct{}
	state *state
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{sem: make(chan struct{}, 1), state: newState()}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, ctx.Err())
	}
}

func (s *Store) release() { <-s.sem }

// Run ejecuta fn con el semáforo tomado. Si fn falla, entra en pánico o el
// contexto vence antes de terminar, se deshacen sus escrituras.
func (s *Store) Run(ctx context.Context, fn func(r allocation.Repos) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	st := s.state
	st.begin()
	defer func() {
		if p := recover(); p != nil {
			st.rollback()
			st.end()
			panic(p)
		}
	}()

	err := fn(reposFor(view{tx: st}))
	if err == nil && ctx.Err() != nil {
		// vencido antes del commit: sin efecto parcial
		err = fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, ctx.Err())
	}
	if err != nil {
		st.rollback()
	}
	st.end()
	return err
}

// Repos repositorios fuera de transacción (cada llamada toma el semáforo).
func (s *Store) Repos() allocation.Repos {
	return reposFor(view{store: s})
}

// Reporting repositorio de solo lectura para dashboards.
func (s *Store) Reporting() *ReportingRepo {
	return &ReportingRepo{view: view{store: s}}
}

func reposFor(v view) allocation.Repos {
	return allocation.Repos{
		Roots:       &rootRepo{v},
		Children:    &childRepo{v},
		Stock:       &stockRepo{v},
		Withdrawals: &withdrawalRepo{v},
		Deliveries:  &deliveryRepo{v},
		Batches:     &batchRepo{v},
	}
}

// view resuelve cómo abre el estado un repositorio: dentro de una transacción
// (sin bloquear, el semáforo ya está tomado) o tomando el semáforo por llamada.
type view struct {
	store *Store
	tx    *state
}

func (v view) open(ctx context.Context) (*state, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if v.tx != nil {
		return v.tx, func() {}, nil
	}
	if err := v.store.acquire(ctx); err != nil {
		return nil, nil, err
	}
	return v.store.state, v.store.release, nil
}

// paginate aplica limit/offset sobre un listado ya ordenado.
func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
