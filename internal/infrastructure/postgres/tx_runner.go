package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/distribucion-api/internal/application/allocation"
)

var _ allocation.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx
// y hace Commit o Rollback. La serialización por raíz la dan los SELECT FOR UPDATE
// y la del stock el UPDATE condicional, no el nivel de aislamiento.
func (r *TxRunner) Run(ctx context.Context, fn func(repos allocation.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos construye todos los repositorios del motor sobre pool o tx.
func NewRepos(q Querier) allocation.Repos {
	return allocation.Repos{
		Roots:       NewRootAllocationRepository(q),
		Children:    NewChildAllocationRepository(q),
		Stock:       NewStockRecordRepository(q),
		Withdrawals: NewWithdrawalRepository(q),
		Deliveries:  NewDeliveryRepository(q),
		Batches:     NewSourceBatchRepository(q),
	}
}
