// Package trainer fits the risk and premium regressors and builds the
// assistant's embedding index from CSV datasets.
package trainer

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

// table is a CSV dataset addressed by column name.
type table struct {
	cols map[string]int
	rows [][]string
}

func parseCSV(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &table{cols: make(map[string]int, len(header))}
	for i, name := range header {
		t.cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

func readDataset(ctx context.Context, store filestore.Store, key string) (*table, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", key, err)
	}
	defer rc.Close()
	t, err := parseCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", key, err)
	}
	return t, nil
}

func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.cols[c]; !ok {
			return fmt.Errorf("missing column %q", c)
		}
	}
	return nil
}

// value returns the trimmed cell, or "" when the column or cell is absent.
func (t *table) value(row []string, col string) string {
	idx, ok := t.cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseOptionalInt(s string) (*int, error) {
	f, err := parseOptionalFloat(s)
	if err != nil || f == nil {
		return nil, err
	}
	v := int(*f)
	return &v, nil
}

func parseOptionalBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	var v bool
	switch strings.ToLower(s) {
	case "yes", "y", "verified":
		v = true
	case "no", "n", "pending":
		v = false
	default:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, err
		}
		v = b
	}
	return &v, nil
}
