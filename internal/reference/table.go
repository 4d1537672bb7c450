// Package reference holds the postal-area crime reference table used when
// encoding assets for risk scoring.
package reference

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xxxsen/insuregenie/internal/filestore"
)

const (
	ColumnPostalArea = "postcode"
	ColumnCrimeRate  = "borough_crime_rate"
	ColumnRiskLevel  = "borough_risk_level"
)

// Entry is the aggregated reference data for one postal area.
type Entry struct {
	PostalArea string  `json:"postal_area"`
	CrimeRate  float64 `json:"crime_rate"`
	RiskLevel  string  `json:"risk_level"`
}

// Row is one raw observation of the reference dataset. Several rows may
// share a postal area.
type Row struct {
	PostalArea string
	CrimeRate  float64
	RiskLevel  string
}

// Table is read-only after construction and safe for concurrent use.
type Table struct {
	entries map[string]Entry
}

// NewTable aggregates rows per postal area: the crime rate is the mean of
// all observations and the risk level is the first non-empty one seen.
func NewTable(rows []Row) *Table {
	type acc struct {
		sum   float64
		count int
		level string
	}
	order := make([]string, 0)
	accs := make(map[string]*acc)
	for _, row := range rows {
		key := normalizeKey(row.PostalArea)
		if key == "" {
			continue
		}
		a, ok := accs[key]
		if !ok {
			a = &acc{}
			accs[key] = a
			order = append(order, key)
		}
		a.sum += row.CrimeRate
		a.count++
		if a.level == "" {
			a.level = strings.TrimSpace(row.RiskLevel)
		}
	}
	entries := make(map[string]Entry, len(order))
	for _, key := range order {
		a := accs[key]
		entries[key] = Entry{
			PostalArea: key,
			CrimeRate:  a.sum / float64(a.count),
			RiskLevel:  a.level,
		}
	}
	return &Table{entries: entries}
}

// Load reads a CSV dataset with a header row containing at least the
// postcode and crime-rate columns. The risk-level column is optional.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read reference header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	postalIdx, ok := cols[ColumnPostalArea]
	if !ok {
		return nil, fmt.Errorf("reference dataset missing column %q", ColumnPostalArea)
	}
	rateIdx, ok := cols[ColumnCrimeRate]
	if !ok {
		return nil, fmt.Errorf("reference dataset missing column %q", ColumnCrimeRate)
	}
	levelIdx, hasLevel := cols[ColumnRiskLevel]

	rows := make([]Row, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read reference line %d: %w", line, err)
		}
		if postalIdx >= len(record) || rateIdx >= len(record) {
			return nil, fmt.Errorf("reference line %d: too few fields", line)
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(record[rateIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("reference line %d: parse crime rate: %w", line, err)
		}
		row := Row{PostalArea: record[postalIdx], CrimeRate: rate}
		if hasLevel && levelIdx < len(record) {
			row.RiskLevel = record[levelIdx]
		}
		rows = append(rows, row)
	}
	return NewTable(rows), nil
}

// LoadFromStore reads the dataset stored under key.
func LoadFromStore(ctx context.Context, store filestore.Store, key string) (*Table, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open reference dataset %s: %w", key, err)
	}
	defer rc.Close()
	return Load(rc)
}

func (t *Table) Lookup(postalArea string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	entry, ok := t.entries[normalizeKey(postalArea)]
	return entry, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func normalizeKey(postalArea string) string {
	return strings.ToUpper(strings.TrimSpace(postalArea))
}
