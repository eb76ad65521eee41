package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
)

var _ repository.ReportingRepository = (*ReportingRepo)(nil)

// ReportingRepo consultas de solo lectura para tableros. Sin bloqueos: una
// lectura concurrente con una escritura puede ver el estado previo.
type ReportingRepo struct {
	q Querier
}

// NewReportingRepository construye el adaptador de reportes.
func NewReportingRepository(q Querier) *ReportingRepo {
	return &ReportingRepo{q: q}
}

// RootSummary agregado de una raíz con conteo de hijos por estado de ciclo de vida.
func (r *ReportingRepo) RootSummary(ctx context.Context, rootID string) (*repository.RootSummaryResult, error) {
	const query = `
	SELECT
	    r.id,
	    r.resource_kind,
	    r.status,
	    r.quantity,
	    c.lifecycle_state,
	    COUNT(c.id)                    AS child_count,
	    COALESCE(SUM(c.quantity), 0)   AS resubdivided
	FROM root_allocations r
	LEFT JOIN child_allocations c ON c.parent_id = r.id
	WHERE r.id = $1
	GROUP BY r.id, r.resource_kind, r.status, r.quantity, c.lifecycle_state`

	rows, err := r.q.Query(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("reporting.RootSummary: %w", err)
	}
	defer rows.Close()

	var res *repository.RootSummaryResult
	total := decimal.Zero
	for rows.Next() {
		var (
			id, kind, status string
			qty, sum         decimal.Decimal
			state            *string
			count            int
		)
		if err := rows.Scan(&id, &kind, &status, &qty, &state, &count, &sum); err != nil {
			return nil, fmt.Errorf("reporting.RootSummary scan: %w", err)
		}
		if res == nil {
			q, err := toQty(qty)
			if err != nil {
				return nil, err
			}
			res = &repository.RootSummaryResult{
				RootID:        id,
				ResourceKind:  kind,
				Status:        status,
				Quantity:      q,
				CountsByState: map[string]int{},
			}
		}
		if state != nil {
			res.CountsByState[*state] = count
			res.ChildCount += count
			total = total.Add(sum)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reporting.RootSummary rows: %w", err)
	}
	if res == nil {
		return nil, nil
	}
	if res.Resubdivided, err = toQty(total); err != nil {
		return nil, err
	}
	return res, nil
}

// DistributorTotals totales por tipo de recurso de las raíces no canceladas de un distribuidor.
func (r *ReportingRepo) DistributorTotals(ctx context.Context, distributorID string) ([]repository.KindTotalsResult, error) {
	const query = `
	WITH roots AS (
	    SELECT id, resource_kind, quantity
	    FROM root_allocations
	    WHERE distributor_id = $1 AND status <> 'CANCELLED'
	), kids AS (
	    SELECT
	        c.parent_id,
	        SUM(c.quantity)                                              AS resubdivided,
	        SUM(c.quantity) FILTER (WHERE c.lifecycle_state = 'PLANTED') AS planted
	    FROM child_allocations c
	    JOIN roots ON roots.id = c.parent_id
	    GROUP BY c.parent_id
	)
	SELECT
	    roots.resource_kind,
	    COUNT(*)                              AS root_count,
	    SUM(roots.quantity)                   AS granted,
	    COALESCE(SUM(kids.resubdivided), 0)   AS resubdivided,
	    COALESCE(SUM(kids.planted), 0)        AS planted
	FROM roots
	LEFT JOIN kids ON kids.parent_id = roots.id
	GROUP BY roots.resource_kind
	ORDER BY roots.resource_kind`

	rows, err := r.q.Query(ctx, query, distributorID)
	if err != nil {
		return nil, fmt.Errorf("reporting.DistributorTotals: %w", err)
	}
	defer rows.Close()

	var results []repository.KindTotalsResult
	for rows.Next() {
		var (
			row                            repository.KindTotalsResult
			granted, resubdivided, planted decimal.Decimal
		)
		if err := rows.Scan(&row.ResourceKind, &row.RootCount, &granted, &resubdivided, &planted); err != nil {
			return nil, fmt.Errorf("reporting.DistributorTotals scan: %w", err)
		}
		if err := fill(map[*quantity.Quantity]decimal.Decimal{
			&row.Granted: granted, &row.Resubdivided: resubdivided, &row.Planted: planted,
		}); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// StockTotals saldo inicial, restante y número de salidas por tipo de recurso.
func (r *ReportingRepo) StockTotals(ctx context.Context) ([]repository.StockTotalsResult, error) {
	const query = `
	SELECT
	    s.resource_kind,
	    COUNT(*)                          AS record_count,
	    SUM(s.initial_quantity)           AS initial,
	    SUM(s.remaining_quantity)         AS remaining,
	    COALESCE(SUM(w.n), 0)::BIGINT     AS withdrawal_count
	FROM stock_records s
	LEFT JOIN (
	    SELECT stock_record_id, COUNT(*) AS n
	    FROM withdrawals
	    GROUP BY stock_record_id
	) w ON w.stock_record_id = s.id
	GROUP BY s.resource_kind
	ORDER BY s.resource_kind`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reporting.StockTotals: %w", err)
	}
	defer rows.Close()

	var results []repository.StockTotalsResult
	for rows.Next() {
		var (
			row                repository.StockTotalsResult
			initial, remaining decimal.Decimal
		)
		if err := rows.Scan(&row.ResourceKind, &row.RecordCount, &initial, &remaining, &row.WithdrawalCount); err != nil {
			return nil, fmt.Errorf("reporting.StockTotals scan: %w", err)
		}
		if err := fill(map[*quantity.Quantity]decimal.Decimal{&row.Initial: initial, &row.Remaining: remaining}); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// DeliveryCounts conteo de entregas por estado y estado de pago.
func (r *ReportingRepo) DeliveryCounts(ctx context.Context) ([]repository.DeliveryCountResult, error) {
	const query = `
	SELECT state, payment_state, COUNT(*)
	FROM unit_deliveries
	GROUP BY state, payment_state
	ORDER BY state, payment_state`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reporting.DeliveryCounts: %w", err)
	}
	defer rows.Close()

	var results []repository.DeliveryCountResult
	for rows.Next() {
		var row repository.DeliveryCountResult
		if err := rows.Scan(&row.State, &row.PaymentState, &row.Count); err != nil {
			return nil, fmt.Errorf("reporting.DeliveryCounts scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func fill(dst map[*quantity.Quantity]decimal.Decimal) error {
	for ptr, d := range dst {
		q, err := toQty(d)
		if err != nil {
			return err
		}
		*ptr = q
	}
	return nil
}
