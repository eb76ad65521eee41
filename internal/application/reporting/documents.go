package reporting

import (
	"context"
	"fmt"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

// DocumentRenderer genera los PDF imprimibles.
type DocumentRenderer interface {
	RootStatementPDF(ctx context.Context, root *entity.RootAllocation, children []*entity.ChildAllocation) ([]byte, error)
	DeliveryNotePDF(ctx context.Context, d *entity.UnitDeliveryRecord, w *entity.Withdrawal, stock *entity.StockRecord) ([]byte, error)
}

// RootReader lectura de una raíz con sus sub-asignaciones.
type RootReader interface {
	GetRootAllocation(ctx context.Context, id string) (*entity.RootAllocation, []*entity.ChildAllocation, error)
}

// StockReader lectura de salidas y registros de stock.
type StockReader interface {
	GetWithdrawal(ctx context.Context, id string) (*entity.Withdrawal, error)
	GetStockRecord(ctx context.Context, id string) (*entity.StockRecord, []*entity.Withdrawal, error)
}

// DeliveryReader lectura de una entrega.
type DeliveryReader interface {
	GetDelivery(ctx context.Context, id string) (*entity.UnitDeliveryRecord, error)
}

// DocumentsUseCase acta de asignación y remisión de entrega en PDF.
type DocumentsUseCase struct {
	roots      RootReader
	stock      StockReader
	deliveries DeliveryReader
	renderer   DocumentRenderer
}

// NewDocumentsUseCase construye el caso de uso.
func NewDocumentsUseCase(roots RootReader, stock StockReader, deliveries DeliveryReader, renderer DocumentRenderer) *DocumentsUseCase {
	return &DocumentsUseCase{roots: roots, stock: stock, deliveries: deliveries, renderer: renderer}
}

// RootStatement acta de una asignación raíz con el detalle de sus sub-asignaciones.
func (uc *DocumentsUseCase) RootStatement(ctx context.Context, rootID string) ([]byte, error) {
	root, children, err := uc.roots.GetRootAllocation(ctx, rootID)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.renderer.RootStatementPDF(ctx, root, children)
	if err != nil {
		return nil, fmt.Errorf("acta de asignación: %w", err)
	}
	return pdf, nil
}

// DeliveryNote remisión de una entrega con la salida y el lote de origen.
func (uc *DocumentsUseCase) DeliveryNote(ctx context.Context, deliveryID string) ([]byte, error) {
	d, err := uc.deliveries.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	w, err := uc.stock.GetWithdrawal(ctx, d.SourceWithdrawalID)
	if err != nil {
		return nil, err
	}
	stock, _, err := uc.stock.GetStockRecord(ctx, w.StockRecordID)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.renderer.DeliveryNotePDF(ctx, d, w, stock)
	if err != nil {
		return nil, fmt.Errorf("remisión de entrega: %w", err)
	}
	return pdf, nil
}
