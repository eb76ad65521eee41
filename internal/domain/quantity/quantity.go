// Package quantity define la cantidad física (plántulas, kilos de fibra) que
// circula entre niveles. Es un decimal no negativo con aritmética exacta.
package quantity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNegative se devuelve al construir o restar por debajo de cero.
var ErrNegative = errors.New("la cantidad no puede ser negativa")

// Quantity valor inmutable; el valor cero es una cantidad válida igual a 0.
type Quantity struct {
	d decimal.Decimal
}

// Zero cantidad nula.
var Zero = Quantity{}

// New construye una cantidad desde un decimal; falla si es negativo.
func New(d decimal.Decimal) (Quantity, error) {
	if d.IsNegative() {
		return Zero, ErrNegative
	}
	return Quantity{d: d}, nil
}

// FromInt atajo para cantidades enteras (tests y semillas).
func FromInt(n int64) Quantity {
	if n < 0 {
		panic(fmt.Sprintf("quantity.FromInt: %d negativo", n))
	}
	return Quantity{d: decimal.NewFromInt(n)}
}

// Parse interpreta un string decimal ("12.5").
func Parse(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("quantity: %w", err)
	}
	return New(d)
}

// MustParse como Parse pero entra en pánico; solo para constantes.
func MustParse(s string) Quantity {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Decimal devuelve el valor subyacente (para persistencia).
func (q Quantity) Decimal() decimal.Decimal { return q.d }

// Add suma dos cantidades.
func (q Quantity) Add(o Quantity) Quantity { return Quantity{d: q.d.Add(o.d)} }

// Sub resta o de q; falla con ErrNegative si o > q.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	return New(q.d.Sub(o.d))
}

// SubFloor resta saturando en cero. Útil para capacidades restantes en reportes.
func (q Quantity) SubFloor(o Quantity) Quantity {
	if o.d.GreaterThanOrEqual(q.d) {
		return Zero
	}
	return Quantity{d: q.d.Sub(o.d)}
}

// Cmp compara: -1 si q < o, 0 si iguales, +1 si q > o.
func (q Quantity) Cmp(o Quantity) int { return q.d.Cmp(o.d) }

func (q Quantity) Equal(o Quantity) bool       { return q.d.Equal(o.d) }
func (q Quantity) LessThan(o Quantity) bool    { return q.d.LessThan(o.d) }
func (q Quantity) GreaterThan(o Quantity) bool { return q.d.GreaterThan(o.d) }
func (q Quantity) IsZero() bool                { return q.d.IsZero() }
func (q Quantity) IsPositive() bool            { return q.d.IsPositive() }

// String representación canónica sin ceros sobrantes.
func (q Quantity) String() string { return q.d.String() }

// MarshalJSON serializa como string decimal para no perder precisión.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return q.d.MarshalJSON()
}

// UnmarshalJSON acepta número o string; rechaza negativos.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	v, err := New(d)
	if err != nil {
		return err
	}
	*q = v
	return nil
}
