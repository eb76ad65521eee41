// seed_batches genera el script SQL que carga los lotes de origen a partir del
// CSV exportado por el laboratorio de calidad (ISO-8859-1, separado por ';').
//
// Columnas: lote;tipo;cantidad;estado[;fecha_verificacion]
// estado ∈ PENDIENTE | VERIFICADO | RECHAZADO (o sus equivalentes en inglés).
//
// Uso: go run ./cmd/seed_batches [-out archivo.sql] [ruta/lotes.csv]
// Por defecto lee lotes.csv y escribe
// internal/infrastructure/postgres/migrations/000002_seed_source_batches.up.sql
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/distribucion-api/internal/domain/entity"
	"github.com/jhoicas/distribucion-api/internal/domain/quantity"
)

type batchRow struct {
	id         string
	kind       string
	qty        quantity.Quantity
	state      string
	verifiedAt *time.Time
}

var stateAliases = map[string]string{
	"PENDIENTE":  entity.BatchVerificationPending,
	"PENDING":    entity.BatchVerificationPending,
	"VERIFICADO": entity.BatchVerificationVerified,
	"VERIFIED":   entity.BatchVerificationVerified,
	"RECHAZADO":  entity.BatchVerificationRejected,
	"REJECTED":   entity.BatchVerificationRejected,
}

func main() {
	out := flag.String("out", "", "archivo SQL de salida")
	flag.Parse()

	csvPath := "lotes.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, skipped, err := parseBatches(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	outPath := *out
	if outPath == "" {
		outPath = filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "000002_seed_source_batches.up.sql")
	}
	w, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := writeSQL(w, rows, filepath.Base(csvPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d lotes (%d filas omitidas)\n", outPath, len(rows), skipped)
}

// parseBatches lee el CSV ya decodificado. Omite la cabecera y las filas
// incompletas; un lote repetido conserva la última fila.
func parseBatches(r io.Reader) ([]batchRow, int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	byID := make(map[string]batchRow)
	skipped := 0
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "lote") {
			continue
		}
		row, ok := parseRow(rec)
		if !ok {
			skipped++
			continue
		}
		byID[row.id] = row
	}

	rows := make([]batchRow, 0, len(byID))
	for _, r := range byID {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].id < rows[j].id })
	return rows, skipped, nil
}

func parseRow(rec []string) (batchRow, bool) {
	if len(rec) < 4 {
		return batchRow{}, false
	}
	id := strings.TrimSpace(rec[0])
	kind := strings.TrimSpace(rec[1])
	// la exportación usa coma decimal
	qty, err := quantity.Parse(strings.ReplaceAll(strings.TrimSpace(rec[2]), ",", "."))
	if id == "" || kind == "" || err != nil || !qty.IsPositive() {
		return batchRow{}, false
	}
	state, ok := stateAliases[strings.ToUpper(strings.TrimSpace(rec[3]))]
	if !ok {
		return batchRow{}, false
	}
	row := batchRow{id: id, kind: kind, qty: qty, state: state}
	if state == entity.BatchVerificationVerified && len(rec) > 4 {
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(rec[4])); err == nil {
			row.verifiedAt = &t
		}
	}
	return row, true
}

func writeSQL(w io.Writer, rows []batchRow, source string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Lotes de origen (generado desde %s)\n\n", source)
	if len(rows) == 0 {
		b.WriteString("SELECT 1;\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString("INSERT INTO source_batches (id, resource_kind, quantity, verification_state, verified_at) VALUES\n")
	for i, r := range rows {
		verified := "NULL"
		if r.verifiedAt != nil {
			verified = "'" + r.verifiedAt.Format("2006-01-02") + "'"
		} else if r.state == entity.BatchVerificationVerified {
			verified = "now()"
		}
		sep := ","
		if i == len(rows)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  ('%s', '%s', %s, '%s', %s)%s\n",
			escapeSQL(r.id), escapeSQL(r.kind), r.qty.String(), r.state, verified, sep)
	}
	b.WriteString("ON CONFLICT (id) DO UPDATE SET\n")
	b.WriteString("  resource_kind = EXCLUDED.resource_kind,\n")
	b.WriteString("  quantity = EXCLUDED.quantity,\n")
	b.WriteString("  verification_state = EXCLUDED.verification_state,\n")
	b.WriteString("  verified_at = EXCLUDED.verified_at;\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
