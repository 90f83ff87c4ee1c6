// Package export turns search records into a tabular form and writes it as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/carsearch/pkg/listing"
)

// Table is a header row plus one formatted row per record.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable lays out records. Columns start with the record schema and are
// extended by any further field in first-seen order; a missing or absent
// value is an empty cell. Without records the header is the schema alone.
func NewTable(records []listing.Record) *Table {
	t := &Table{}
	index := make(map[string]int)
	for _, f := range (listing.Record{}).Fields() {
		index[f.Name] = len(t.Columns)
		t.Columns = append(t.Columns, f.Name)
	}

	rows := make([]map[int]string, len(records))
	for i, r := range records {
		row := make(map[int]string)
		for _, f := range r.Fields() {
			col, ok := index[f.Name]
			if !ok {
				col = len(t.Columns)
				index[f.Name] = col
				t.Columns = append(t.Columns, f.Name)
			}
			row[col] = formatCell(f.Value)
		}
		rows[i] = row
	}

	t.Rows = make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(t.Columns))
		for col, v := range row {
			cells[col] = v
		}
		t.Rows[i] = cells
	}
	return t
}

// Column returns the cells of the named column, or nil if there is none.
func (t *Table) Column(name string) []string {
	for col, c := range t.Columns {
		if c != name {
			continue
		}
		out := make([]string, len(t.Rows))
		for i, row := range t.Rows {
			out[i] = row[col]
		}
		return out
	}
	return nil
}

func formatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// WriteCSV writes the header row followed by every row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteFile writes t to path, creating the parent directory if needed.
func WriteFile(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	log.Info().
		Str("component", "export").
		Str("path", path).
		Int("rows", len(t.Rows)).
		Int("columns", len(t.Columns)).
		Msg("Wrote CSV")
	return nil
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	all, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("read csv: missing header row")
	}
	return &Table{Columns: all[0], Rows: all[1:]}, nil
}
