package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
)

func TestParseBatches_Latin1(t *testing.T) {
	// "Fibra de Fique Ñ" en ISO-8859-1: Ñ = 0xD1
	raw := []byte("lote;tipo;cantidad;estado;fecha_verificacion\n" +
		"L-002;Fibra de Fique \xd1;12,5;verificado;2026-02-10\n" +
		"L-001;Pl\xe1ntula;100;PENDIENTE\n" +
		"L-003;Fibra;-4;VERIFICADO\n" +
		"L-004;Fibra;10;DESCONOCIDO\n" +
		"L-001;Pl\xe1ntula;120;PENDIENTE\n")

	rows, skipped, err := parseBatches(transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder()))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped, "cantidad negativa y estado desconocido se omiten")
	require.Len(t, rows, 2)

	assert.Equal(t, "L-001", rows[0].id)
	assert.Equal(t, "Plántula", rows[0].kind)
	assert.Equal(t, "120", rows[0].qty.String(), "el lote repetido conserva la última fila")
	assert.Equal(t, entity.BatchVerificationPending, rows[0].state)

	assert.Equal(t, "Fibra de Fique Ñ", rows[1].kind)
	assert.Equal(t, "12.5", rows[1].qty.String())
	assert.Equal(t, entity.BatchVerificationVerified, rows[1].state)
	require.NotNil(t, rows[1].verifiedAt)
}

func TestWriteSQL(t *testing.T) {
	rows, _, err := parseBatches(strings.NewReader("L-9;Fibra O'Neil;3;VERIFIED\nL-8;Fibra;2;REJECTED\n"))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, writeSQL(&b, rows, "lotes.csv"))
	sql := b.String()
	assert.Contains(t, sql, "('L-8', 'Fibra', 2, 'REJECTED', NULL),")
	assert.Contains(t, sql, "('L-9', 'Fibra O''Neil', 3, 'VERIFIED', now())\n")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE SET")

	b.Reset()
	require.NoError(t, writeSQL(&b, nil, "vacio.csv"))
	assert.Contains(t, b.String(), "SELECT 1;")
}
