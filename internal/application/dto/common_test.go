package dto_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/distribucion-api/internal/application/dto"
	"github.com/jhoicas/distribucion-api/internal/domain"
	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

func TestPageRequest_Normalize(t *testing.T) {
	p := dto.PageRequest{}
	p.Normalize()
	assert.Equal(t, 20, p.Limit)
	assert.Equal(t, 21, p.FetchLimit(), "una fila de sobra para detectar otra página")

	p = dto.PageRequest{Limit: 5, Offset: -3}
	p.Normalize()
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestNewPage(t *testing.T) {
	req := dto.PageRequest{Limit: 2, Offset: 4}

	full := dto.NewPage([]string{"a", "b", "c"}, req)
	assert.Equal(t, []string{"a", "b"}, full.Items)
	assert.True(t, full.Page.HasMore)
	require.NotNil(t, full.Page.NextOffset)
	assert.Equal(t, 6, *full.Page.NextOffset)

	last := dto.NewPage([]string{"a"}, req)
	assert.Equal(t, []string{"a"}, last.Items)
	assert.False(t, last.Page.HasMore)
	assert.Nil(t, last.Page.NextOffset)

	empty := dto.NewPage[string](nil, req)
	assert.NotNil(t, empty.Items, "se serializa como [] y no como null")
	assert.Empty(t, empty.Items)
}

func TestMapPage(t *testing.T) {
	roots := []*entity.RootAllocation{{ID: "r1"}, {ID: "r2"}}
	page := dto.MapPage(roots, dto.PageRequest{Limit: 1}, dto.RootFromEntity)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "r1", page.Items[0].ID)
	assert.True(t, page.Page.HasMore)
}

func TestNewErrorResponse(t *testing.T) {
	capErr := fmt.Errorf("sub-asignar: %w", &domain.CapacityError{
		Kind: domain.ErrExceedsAllocation, Requested: quantity.FromInt(50), Remaining: quantity.MustParse("12.5"),
	})
	body := dto.NewErrorResponse("EXCEEDS_ALLOCATION", capErr)
	assert.Equal(t, "EXCEEDS_ALLOCATION", body.Code)
	assert.Equal(t, "12.5", body.Remaining)
	assert.Empty(t, body.CurrentState)
	assert.Contains(t, body.Message, "solicitado 50")

	body = dto.NewErrorResponse("INVALID_TRANSITION", &domain.TransitionError{
		Kind: domain.ErrInvalidTransition, Current: entity.ChildStatePlanted, Target: "RETRACTED",
	})
	assert.Equal(t, entity.ChildStatePlanted, body.CurrentState)
	assert.Empty(t, body.Remaining)

	body = dto.NewErrorResponse("NOT_FOUND", domain.ErrNotFound)
	assert.Equal(t, domain.ErrNotFound.Error(), body.Message)
}
