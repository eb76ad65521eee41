package allocation

import (
	"context"

	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

// Repos repositorios que ve una operación del motor. Dentro de TxRunner.Run
// todos están atados a la misma transacción.
type Repos struct {
	Roots       repository.RootAllocationRepository
	Children    repository.ChildAllocationRepository
	Stock       repository.StockRecordRepository
	Withdrawals repository.WithdrawalRepository
	Deliveries  repository.DeliveryRepository
	Batches     repository.SourceBatchRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso (todo o nada).
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
