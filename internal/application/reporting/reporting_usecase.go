// Package reporting expone las vistas de solo lectura para tableros: resumen de
// una asignación, totales del distribuidor, stock y entregas.
//
// Las lecturas no bloquean filas; un tablero puede ir un instante por detrás
// de una escritura concurrente. Los tableros se cachean con un TTL corto.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/distribucion-api/internal/application/dto"
	"github.com/jhoicas/distribucion-api/internal/domain"
	domainalloc "github.com/jhoicas/distribucion-api/internal/domain/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/repository"
	"github.com/jhoicas/distribucion-api/pkg/logger"
)

// Cache almacenamiento de respuestas serializadas. Get devuelve false si no hay entrada.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ReportingUseCase arma los DTO de reportes a partir de ReportingRepository.
type ReportingUseCase struct {
	repo    repository.ReportingRepository
	cache   Cache
	ttl     time.Duration
	timeout time.Duration
	log     *logger.Logger
	now     func() time.Time
}

// NewReportingUseCase construye el caso de uso. cache nil desactiva el cacheo.
func NewReportingUseCase(repo repository.ReportingRepository, cache Cache, ttl, timeout time.Duration, log *logger.Logger) *ReportingUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &ReportingUseCase{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
		log:     log.Component("reporting"),
		now:     time.Now,
	}
}

// RootSummary agregado de una raíz: cantidad, suma viva, capacidad restante y
// sub-asignaciones por estado. Sin caché: se consulta tras cada alta.
func (uc *ReportingUseCase) RootSummary(ctx context.Context, rootID string) (*dto.RootSummaryDTO, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res, err := uc.repo.RootSummary(ctx, rootID)
	if err != nil {
		return nil, storageErr("resumen de asignación", err)
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.RootSummaryDTO{
		RootID:            res.RootID,
		ResourceKind:      res.ResourceKind,
		Status:            res.Status,
		Quantity:          res.Quantity,
		Resubdivided:      res.Resubdivided,
		RemainingCapacity: domainalloc.RemainingCapacity(res.Quantity, res.Resubdivided),
		ChildCount:        res.ChildCount,
		CountsByState:     res.CountsByState,
	}, nil
}

// DistributorDashboard totales por tipo de recurso de un distribuidor.
func (uc *ReportingUseCase) DistributorDashboard(ctx context.Context, distributorID string) (*dto.DistributorDashboardDTO, error) {
	if distributorID == "" {
		return nil, domain.ErrInvalidInput
	}
	var out dto.DistributorDashboardDTO
	err := uc.cached(ctx, "reports:distributor:"+distributorID, &out, func(ctx context.Context) error {
		rows, err := uc.repo.DistributorTotals(ctx, distributorID)
		if err != nil {
			return storageErr("tablero del distribuidor", err)
		}
		out = dto.DistributorDashboardDTO{
			DistributorID: distributorID,
			Kinds:         make([]dto.KindTotalsDTO, 0, len(rows)),
			GeneratedAt:   uc.now(),
		}
		for _, r := range rows {
			out.Kinds = append(out.Kinds, dto.KindTotalsDTO{
				ResourceKind: r.ResourceKind,
				RootCount:    r.RootCount,
				Granted:      r.Granted,
				Resubdivided: r.Resubdivided,
				Remaining:    domainalloc.RemainingCapacity(r.Granted, r.Resubdivided),
				Planted:      r.Planted,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StockSummary saldos por tipo de recurso.
func (uc *ReportingUseCase) StockSummary(ctx context.Context) (*dto.StockSummaryDTO, error) {
	var out dto.StockSummaryDTO
	err := uc.cached(ctx, "reports:stock", &out, func(ctx context.Context) error {
		rows, err := uc.repo.StockTotals(ctx)
		if err != nil {
			return storageErr("resumen de stock", err)
		}
		out = dto.StockSummaryDTO{Kinds: make([]dto.StockKindDTO, 0, len(rows)), GeneratedAt: uc.now()}
		for _, r := range rows {
			out.Kinds = append(out.Kinds, dto.StockKindDTO{
				ResourceKind:    r.ResourceKind,
				RecordCount:     r.RecordCount,
				Initial:         r.Initial,
				Remaining:       r.Remaining,
				Distributed:     r.Initial.SubFloor(r.Remaining),
				WithdrawalCount: r.WithdrawalCount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeliverySummary conteo de entregas por estado y por pago.
func (uc *ReportingUseCase) DeliverySummary(ctx context.Context) (*dto.DeliverySummaryDTO, error) {
	var out dto.DeliverySummaryDTO
	err := uc.cached(ctx, "reports:deliveries", &out, func(ctx context.Context) error {
		rows, err := uc.repo.DeliveryCounts(ctx)
		if err != nil {
			return storageErr("resumen de entregas", err)
		}
		out = dto.DeliverySummaryDTO{ByState: map[string]int{}, GeneratedAt: uc.now()}
		for _, r := range rows {
			out.ByState[r.State] += r.Count
			out.Total += r.Count
			if r.PaymentState == entity.PaymentPaid {
				out.Paid += r.Count
			} else {
				out.Unpaid += r.Count
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Overview stock y entregas en paralelo. El primer fallo cancela la otra lectura.
func (uc *ReportingUseCase) Overview(ctx context.Context) (*dto.OverviewDTO, error) {
	var out dto.OverviewDTO
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := uc.StockSummary(gctx)
		out.Stock = v
		return err
	})
	g.Go(func() error {
		v, err := uc.DeliverySummary(gctx)
		out.Deliveries = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// cached sirve dst desde la caché o lo construye con load y lo guarda.
// Un fallo de la caché se registra y no interrumpe el reporte.
func (uc *ReportingUseCase) cached(ctx context.Context, key string, dst any, load func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	if uc.cache != nil && uc.ttl > 0 {
		hit, err := uc.cache.Get(ctx, key, dst)
		if err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("caché de reportes no disponible")
		} else if hit {
			return nil
		}
	}
	if err := load(ctx); err != nil {
		return err
	}
	if uc.cache != nil && uc.ttl > 0 {
		if err := uc.cache.Set(ctx, key, dst, uc.ttl); err != nil {
			uc.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar el reporte en caché")
		}
	}
	return nil
}

func storageErr(what string, err error) error {
	if errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageUnavailable, what, err)
}
