package regionio

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CountSpec maps category labels to named source columns. Columns are
// located via the header row, never by position, and the whole mapping is
// validated before any data row is read.
type CountSpec struct {
	IDColumn string
	Columns  map[string]string // category label → source column name
}

// Validate checks the spec for missing or duplicate column names.
func (s CountSpec) Validate() error {
	if s.IDColumn == "" {
		return eris.New("regionio: count spec needs an ID column")
	}
	if len(s.Columns) == 0 {
		return eris.New("regionio: count spec needs at least one category column")
	}
	seen := make(map[string]string, len(s.Columns))
	for label, col := range s.Columns {
		if col == "" {
			return eris.Errorf("regionio: category %q has no source column", label)
		}
		if other, dup := seen[col]; dup {
			return eris.Errorf("regionio: categories %q and %q share source column %q", other, label, col)
		}
		seen[col] = label
	}
	return nil
}

// ReadCountsCSV reads a per-region count table from a CSV file. The
// result maps region ID → category label → count.
func ReadCountsCSV(path string, spec CountSpec) (map[string]map[string]int, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "regionio: open counts %s", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "regionio: read counts header %s", path)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "regionio: read counts row %s", path)
		}
		rows = append(rows, rec)
	}

	return countsFromRows(header, rows, spec)
}

// countsFromRows turns a header plus data rows into a count table. Shared
// by the CSV and XLSX readers.
func countsFromRows(header []string, rows [][]string, spec CountSpec) (map[string]map[string]int, error) {
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}

	idIdx, ok := colIdx[spec.IDColumn]
	if !ok {
		return nil, eris.Errorf("regionio: counts table has no column %q", spec.IDColumn)
	}

	// Validate the full mapping before reading any data.
	catIdx := make(map[string]int, len(spec.Columns))
	var missing []string
	for label, col := range spec.Columns {
		idx, ok := colIdx[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		catIdx[label] = idx
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, eris.Errorf("regionio: counts table is missing columns %s", strings.Join(missing, ", "))
	}

	counts := make(map[string]map[string]int, len(rows))
	var coerced int
	for _, rec := range rows {
		if idIdx >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[idIdx])
		if id == "" {
			continue
		}
		if _, dup := counts[id]; dup {
			return nil, eris.Errorf("regionio: duplicate region ID %q in counts table", id)
		}

		row := make(map[string]int, len(catIdx))
		for label, idx := range catIdx {
			var cell string
			if idx < len(rec) {
				cell = rec[idx]
			}
			n, ok := parseCount(cell)
			if !ok {
				coerced++
			}
			row[label] = n
		}
		counts[id] = row
	}

	if coerced > 0 {
		zap.L().Debug("regionio: coerced non-numeric count cells to zero", zap.Int("cells", coerced))
	}
	return counts, nil
}

// parseCount parses a count cell. Missing, non-numeric and negative
// values coerce to zero; the second return reports whether the cell was
// a clean non-negative number.
func parseCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	// Some exports carry counts as floats ("123.0").
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}
