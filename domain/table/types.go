package table

import (
	"fmt"
	"math"

	"goimpute/domain/core"
)

// StatisticalType defines how a column participates in model fitting
type StatisticalType string

const (
	TypeNumeric     StatisticalType = "numeric"
	TypeBinary      StatisticalType = "binary"
	TypeCategorical StatisticalType = "categorical"
)

// Column is one named variable. Values are stored as float64 with NaN as the
// explicit missing marker; categorical columns store level codes and keep the
// code-to-label table in Levels.
type Column struct {
	Key    core.VariableKey `json:"key"`
	Type   StatisticalType  `json:"type"`
	Values []float64        `json:"values"`
	Levels []string         `json:"levels,omitempty"`
}

// IsMissing reports whether the value at row i is absent.
func (c Column) IsMissing(i int) bool {
	return math.IsNaN(c.Values[i])
}

// ObservedCount returns the number of non-missing values.
func (c Column) ObservedCount() int {
	n := 0
	for _, v := range c.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Observed returns the non-missing values in row order.
func (c Column) Observed() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an ordered collection of equal-length named columns. Row identity
// is positional and stable across every operation; transformations always
// return a new Dataset and never mutate the receiver.
type Dataset struct {
	columns []Column
	index   map[core.VariableKey]int
}

// New builds a dataset from columns, validating the shape invariants:
// unique keys and equal column lengths.
func New(columns ...Column) (*Dataset, error) {
	d := &Dataset{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[core.VariableKey]int, len(columns)),
	}
	rows := -1
	for _, col := range columns {
		if col.Key == "" {
			return nil, fmt.Errorf("column key cannot be empty")
		}
		if _, dup := d.index[col.Key]; dup {
			return nil, fmt.Errorf("duplicate column key %q", col.Key)
		}
		if rows == -1 {
			rows = len(col.Values)
		} else if len(col.Values) != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				core.ErrColumnLengthMismatch, col.Key, len(col.Values), rows)
		}
		d.index[col.Key] = len(d.columns)
		d.columns = append(d.columns, col)
	}
	return d, nil
}

// RowCount returns the number of rows.
func (d *Dataset) RowCount() int {
	if len(d.columns) == 0 {
		return 0
	}
	return len(d.columns[0].Values)
}

// ColumnCount returns the number of columns.
func (d *Dataset) ColumnCount() int {
	return len(d.columns)
}

// Keys returns the column keys in declaration order.
func (d *Dataset) Keys() []core.VariableKey {
	keys := make([]core.VariableKey, len(d.columns))
	for i, col := range d.columns {
		keys[i] = col.Key
	}
	return keys
}

// Has reports whether a column exists.
func (d *Dataset) Has(key core.VariableKey) bool {
	_, ok := d.index[key]
	return ok
}

// Column returns a deep copy of the named column, so callers can never
// reach back into the dataset's storage.
func (d *Dataset) Column(key core.VariableKey) (Column, error) {
	i, ok := d.index[key]
	if !ok {
		return Column{}, core.NewInvalidColumnError(key.String())
	}
	return copyColumn(d.columns[i]), nil
}

// Values returns a copy of the named column's values.
func (d *Dataset) Values(key core.VariableKey) ([]float64, error) {
	i, ok := d.index[key]
	if !ok {
		return nil, core.NewInvalidColumnError(key.String())
	}
	out := make([]float64, len(d.columns[i].Values))
	copy(out, d.columns[i].Values)
	return out, nil
}

// Type returns the statistical type of the named column.
func (d *Dataset) Type(key core.VariableKey) (StatisticalType, error) {
	i, ok := d.index[key]
	if !ok {
		return "", core.NewInvalidColumnError(key.String())
	}
	return d.columns[i].Type, nil
}

// WithValues returns a new dataset in which the named column's values are
// replaced. Every other column is copied untouched.
func (d *Dataset) WithValues(key core.VariableKey, values []float64) (*Dataset, error) {
	i, ok := d.index[key]
	if !ok {
		return nil, core.NewInvalidColumnError(key.String())
	}
	if len(values) != d.RowCount() {
		return nil, fmt.Errorf("%w: replacement for %q has %d rows, expected %d",
			core.ErrColumnLengthMismatch, key, len(values), d.RowCount())
	}
	out := d.Clone()
	copy(out.columns[i].Values, values)
	return out, nil
}

// Clone returns a deep copy sharing no storage with the receiver.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		columns: make([]Column, len(d.columns)),
		index:   make(map[core.VariableKey]int, len(d.index)),
	}
	for i, col := range d.columns {
		out.columns[i] = copyColumn(col)
		out.index[col.Key] = i
	}
	return out
}

// Fingerprint produces a deterministic hash over all column data and types,
// used in run manifests for replayability.
func (d *Dataset) Fingerprint() core.Hash {
	parts := make(map[string]core.Hash, len(d.columns))
	for _, col := range d.columns {
		parts[col.Key.String()+":"+string(col.Type)] = core.ComputeValuesHash(col.Values)
	}
	return core.ComputeKeyedHash(parts)
}

func copyColumn(col Column) Column {
	out := Column{Key: col.Key, Type: col.Type}
	out.Values = make([]float64, len(col.Values))
	copy(out.Values, col.Values)
	if col.Levels != nil {
		out.Levels = make([]string, len(col.Levels))
		copy(out.Levels, col.Levels)
	}
	return out
}
