// Package pdf genera los documentos imprimibles del motor de asignación:
// el acta de una asignación raíz y la remisión de una entrega.
//
// Layout del acta (A4):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Acta de asignación │ N° asignación + fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PARTES: distribuidor → asociación, tipo de recurso          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Agricultor | Cantidad | Estado | Fecha              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: asignado / sub-asignado / disponible               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/distribucion-api/internal/application/reporting"
	domainalloc "github.com/jhoicas/distribucion-api/internal/domain/allocation"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

var _ reporting.DocumentRenderer = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 34, Green: 102, Blue: 51}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const dateLayout = "02/01/2006"

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa reporting.DocumentRenderer usando Maroto v2.
type MarotoPDFGenerator struct {
	author string
}

// NewMarotoPDFGenerator construye el generador; author aparece en los metadatos del PDF.
func NewMarotoPDFGenerator(author string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{author: author}
}

func (g *MarotoPDFGenerator) newDocument(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		WithAuthor(nonEmpty(g.author, "distribucion-api"), true).
		Build()
	return maroto.New(cfg)
}

// RootStatementPDF acta de asignación con el detalle por agricultor.
func (g *MarotoPDFGenerator) RootStatementPDF(
	_ context.Context,
	root *entity.RootAllocation,
	children []*entity.ChildAllocation,
) ([]byte, error) {
	m := g.newDocument("Acta de asignación")

	m.AddRows(headerRow("ACTA DE ASIGNACIÓN", root.ID, root.CreatedAt.Format(dateLayout)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(root))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	sum := quantity.Zero
	for _, c := range children {
		m.AddRows(childRow(c))
		sum = sum.Add(c.Quantity)
	}
	if len(children) == 0 {
		m.AddRows(row.New(7).Add(col.New(12).Add(
			text.New("Sin sub-asignaciones registradas.", props.Text{Size: 8, Top: 1, Color: colorGray, Align: align.Center}),
		)))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(
		[2]string{"Asignado:", root.Quantity.String()},
		[2]string{"Sub-asignado:", sum.String()},
		[2]string{"Disponible:", domainalloc.RemainingCapacity(root.Quantity, sum).String()},
	))
	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New("Estado: "+root.Status, props.Text{Style: fontstyle.Bold, Size: 9, Top: 2, Color: colorPrimary}),
	)))
	if root.Remarks != "" {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Observaciones: "+root.Remarks, props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar acta: %w", err)
	}
	return doc.GetBytes(), nil
}

// DeliveryNotePDF remisión con QR del id de la entrega para la recepción.
func (g *MarotoPDFGenerator) DeliveryNotePDF(
	_ context.Context,
	d *entity.UnitDeliveryRecord,
	w *entity.Withdrawal,
	stock *entity.StockRecord,
) ([]byte, error) {
	m := g.newDocument("Remisión de entrega")

	m.AddRows(headerRow("REMISIÓN DE ENTREGA", d.ID, d.DispatchedAt.Format(dateLayout)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(row.New(22).Add(
		col.New(12).Add(
			text.New("DETALLE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Destinatario: %s", w.Recipient), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("Cantidad: %s   |   Tipo: %s   |   Lote: %s",
				w.Quantity, stock.ResourceKind, stock.SourceBatchID,
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
			text.New(fmt.Sprintf("Estado: %s   |   Pago: %s", d.State, d.PaymentState),
				props.Text{Size: 8, Top: 17, Color: colorGray}),
		),
	))
	m.AddRows(line.NewRow(3))
	m.AddRows(row.New(45).Add(
		col.New(4).Add(code.NewQr(d.ID, props.Rect{Percent: 95, Center: true})),
		col.New(8).Add(
			text.New("Escanee el código al recibir para\nconfirmar la entrega.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Recibido por: ______________________", props.Text{
				Size: 9, Top: 28, Left: 3,
			}),
		),
	))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar remisión: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y número + fecha (der).
func headerRow(title, number, date string) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(5).Add(
			text.New("N° "+number, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 3}),
			text.New("Fecha: "+date, props.Text{Size: 8, Align: align.Right, Top: 10, Color: colorGray}),
		),
	)
}

// partiesRow: distribuidor, asociación receptora y recurso.
func partiesRow(root *entity.RootAllocation) core.Row {
	return row.New(16).Add(
		col.New(12).Add(
			text.New("PARTES", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Distribuidor: %s   →   Asociación: %s", root.DistributorID, root.RecipientID),
				props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("Recurso: "+root.ResourceKind, props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de sub-asignaciones.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Agricultor", 5, align.Left),
		h("Cantidad", 2, align.Right),
		h("Estado", 3, align.Center),
		h("Fecha", 2, align.Center),
	)
}

// childRow: una fila por sub-asignación.
func childRow(c *entity.ChildAllocation) core.Row {
	date := c.CreatedAt
	if c.Evidence != nil {
		date = c.Evidence.Date
	}
	return row.New(7).Add(
		col.New(5).Add(text.New(c.RecipientID, props.Text{Size: 8, Top: 1, Left: 1})),
		col.New(2).Add(text.New(c.Quantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		col.New(3).Add(text.New(c.LifecycleState, props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(2).Add(text.New(date.Format(dateLayout), props.Text{Size: 8, Align: align.Center, Top: 1})),
	)
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(lines ...[2]string) core.Row {
	labels := make([]core.Component, 0, len(lines))
	values := make([]core.Component, 0, len(lines))
	for i, l := range lines {
		top := float64(i * 6)
		labels = append(labels, text.New(l[0], props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top}))
		values = append(values, text.New(l[1], props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}))
	}
	return row.New(float64(len(lines)*6+2)).Add(
		col.New(6),
		col.New(3).Add(labels...),
		col.New(3).Add(values...),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
