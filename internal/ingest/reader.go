package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"fpcli/internal/photometry"
)

var (
	// ErrNoHeader means no row within the scan limit looked like the
	// acquisition software's column header.
	ErrNoHeader = errors.New("no recognizable header row")
	// ErrMissingColumn means the header row was found but lacks one of the
	// time, signal or reference columns.
	ErrMissingColumn = errors.New("required column missing")
	// ErrNoRows means the file had a header but no parsable data rows.
	ErrNoRows = errors.New("no usable data rows")
)

// headerScanLimit caps how deep into the file the header sniff looks. The
// acquisition software writes up to four comment lines above the header.
const headerScanLimit = 5

// columns holds the mapped positions of the three required columns.
type columns struct {
	time      int
	signal    int
	reference int
}

// ReadTrace reads one raw recording CSV into a Trace. The subject ID is
// derived from the filename. Rows with an unparsable or non-finite cell in
// any mapped column are dropped.
func ReadTrace(path string) (*photometry.Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read recording %s: %w", path, err)
	}

	headerRow, cols, err := findHeader(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	trace := &photometry.Trace{Subject: SubjectID(path)}
	for _, row := range rows[headerRow+1:] {
		t, ok := parseCell(row, cols.time)
		s, okS := parseCell(row, cols.signal)
		ref, okR := parseCell(row, cols.reference)
		if !ok || !okS || !okR {
			continue
		}
		trace.Time = append(trace.Time, t)
		trace.Signal = append(trace.Signal, s)
		trace.Reference = append(trace.Reference, ref)
	}

	if trace.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRows)
	}

	return trace, nil
}

// findHeader locates the header row within the scan limit and maps the
// column positions. A row qualifies when it mentions both a time column and
// the GFP signal column.
func findHeader(rows [][]string) (int, columns, error) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for i := 0; i < limit; i++ {
		rowText := strings.ToLower(strings.Join(rows[i], " "))
		if !strings.Contains(rowText, "time") || !strings.Contains(rowText, "gfp") {
			continue
		}

		cols := columns{time: -1, signal: -1, reference: -1}
		for j, header := range rows[i] {
			h := strings.ToLower(strings.TrimSpace(header))
			switch {
			case cols.time < 0 && strings.Contains(h, "time"):
				cols.time = j
			case cols.signal < 0 && strings.Contains(h, "gfp"):
				cols.signal = j
			case cols.reference < 0 && strings.Contains(h, "tomato"):
				cols.reference = j
			}
		}

		var missing []string
		if cols.time < 0 {
			missing = append(missing, "time")
		}
		if cols.signal < 0 {
			missing = append(missing, "gfp")
		}
		if cols.reference < 0 {
			missing = append(missing, "tomato")
		}
		if len(missing) > 0 {
			return 0, columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
		}

		return i, cols, nil
	}

	return 0, columns{}, ErrNoHeader
}

// parseCell parses one mapped cell, rejecting absent, unparsable and
// non-finite values.
func parseCell(row []string, idx int) (float64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
