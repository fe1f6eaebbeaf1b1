// Package loader reads tabular files into datasets, inferring a statistical
// type per column and mapping blank or NA cells to the NaN missing marker.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"goimpute/domain/core"
	"goimpute/domain/table"
	"goimpute/internal/errors"
	"goimpute/ports"
)

// missingTokens are the cell spellings treated as a missing value.
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
}

// FileReader implements ports.DatasetReaderPort for CSV and Excel files,
// dispatching on the file extension.
type FileReader struct {
	// Sheet names the Excel worksheet to read; empty means the first sheet.
	Sheet string
}

// NewFileReader creates a reader with default settings.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// ReadDataset loads the file at path into a dataset.
func (r *FileReader) ReadDataset(ctx context.Context, path string) (*table.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx", ".xlsm":
		records, err = r.readExcel(path)
	default:
		err = fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, errors.DatasetLoadError(path, err)
	}

	ds, err := buildDataset(records)
	if err != nil {
		return nil, errors.DatasetLoadError(path, err)
	}
	return ds, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func (r *FileReader) readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := r.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	// Excel rows can be ragged; pad short rows to the header width.
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row[:width]
		}
	}
	return rows, nil
}

// buildDataset turns header-plus-rows records into typed columns. A column
// whose observed cells all parse as numbers becomes numeric (or binary when
// the values are a subset of {0, 1}); anything else becomes categorical with
// level codes assigned in order of first appearance.
func buildDataset(records [][]string) (*table.Dataset, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}
	header := records[0]
	if len(header) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}
	body := records[1:]

	columns := make([]table.Column, 0, len(header))
	for j, name := range header {
		key := core.VariableKey(strings.TrimSpace(name))
		cells := make([]string, len(body))
		for i, row := range body {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}
		columns = append(columns, buildColumn(key, cells))
	}
	return table.New(columns...)
}

func buildColumn(key core.VariableKey, cells []string) table.Column {
	values := make([]float64, len(cells))
	numeric := true
	binary := true
	for i, cell := range cells {
		if missingTokens[strings.ToLower(cell)] {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			numeric = false
			break
		}
		values[i] = v
		if v != 0 && v != 1 {
			binary = false
		}
	}

	if numeric {
		colType := table.TypeNumeric
		if binary && hasObserved(values) {
			colType = table.TypeBinary
		}
		return table.Column{Key: key, Type: colType, Values: values}
	}

	// Categorical: assign level codes in first-appearance order.
	codes := make(map[string]float64)
	var levels []string
	for i, cell := range cells {
		if missingTokens[strings.ToLower(cell)] {
			values[i] = math.NaN()
			continue
		}
		code, seen := codes[cell]
		if !seen {
			code = float64(len(levels))
			codes[cell] = code
			levels = append(levels, cell)
		}
		values[i] = code
	}
	return table.Column{Key: key, Type: table.TypeCategorical, Values: values, Levels: levels}
}

func hasObserved(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

var _ ports.DatasetReaderPort = (*FileReader)(nil)
