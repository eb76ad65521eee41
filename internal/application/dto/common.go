package dto

import (
	"errors"

	"github.com/jhoicas/distribucion-api/internal/domain"
)

const defaultPageLimit = 20

// PageRequest paginación limit/offset de los listados. Limit 0 toma el valor por defecto.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// Normalize aplica el límite por defecto.
func (p *PageRequest) Normalize() {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// FetchLimit filas a pedir al repositorio: una más que Limit para saber si hay otra página.
func (p PageRequest) FetchLimit() int { return p.Limit + 1 }

// PageResponse metadatos de página. NextOffset solo aparece si quedan filas.
type PageResponse struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
	NextOffset *int `json:"next_offset,omitempty"`
}

// Page listado paginado.
type Page[T any] struct {
	Items []T          `json:"items"`
	Page  PageResponse `json:"page"`
}

// NewPage recorta la fila de sobra pedida con FetchLimit y arma los metadatos.
func NewPage[T any](items []T, req PageRequest) Page[T] {
	out := Page[T]{Items: items, Page: PageResponse{Limit: req.Limit, Offset: req.Offset}}
	if len(items) > req.Limit {
		next := req.Offset + req.Limit
		out.Items = items[:req.Limit]
		out.Page.HasMore, out.Page.NextOffset = true, &next
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return out
}

// MapPage convierte cada entidad con fn y pagina el resultado.
func MapPage[E, T any](list []E, req PageRequest, fn func(E) T) Page[T] {
	items := make([]T, 0, len(list))
	for _, e := range list {
		items = append(items, fn(e))
	}
	return NewPage(items, req)
}

// ErrorResponse cuerpo de error HTTP. Remaining acompaña los rechazos por
// capacidad y CurrentState los de transición.
type ErrorResponse struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Remaining    string `json:"remaining,omitempty"`
	CurrentState string `json:"current_state,omitempty"`
}

// NewErrorResponse cuerpo con code y el mensaje de err; copia el saldo
// restante de un *domain.CapacityError y el estado de un *domain.TransitionError.
func NewErrorResponse(code string, err error) ErrorResponse {
	body := ErrorResponse{Code: code, Message: err.Error()}
	var capErr *domain.CapacityError
	if errors.As(err, &capErr) {
		body.Remaining = capErr.Remaining.String()
	}
	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		body.CurrentState = trErr.Current
	}
	return body
}
