package table

import (
	"math"

	"goimpute/domain/core"
)

// Mask marks which rows of a column are missing. It is derived from column
// data on demand, never stored, so it can't drift from the values.
type Mask []bool

// Count returns the number of missing rows.
func (m Mask) Count() int {
	n := 0
	for _, missing := range m {
		if missing {
			n++
		}
	}
	return n
}

// MissingRows returns the row indices where the mask is set.
func (m Mask) MissingRows() []int {
	rows := make([]int, 0, m.Count())
	for i, missing := range m {
		if missing {
			rows = append(rows, i)
		}
	}
	return rows
}

// ObservedRows returns the row indices where the mask is clear.
func (m Mask) ObservedRows() []int {
	rows := make([]int, 0, len(m)-m.Count())
	for i, missing := range m {
		if !missing {
			rows = append(rows, i)
		}
	}
	return rows
}

// DetectMissing scans the named column and returns its missingness mask.
// The mask has exactly one entry per row; mask[i] is true iff row i is absent.
func DetectMissing(d *Dataset, key core.VariableKey) (Mask, error) {
	i, ok := d.index[key]
	if !ok {
		return nil, core.NewInvalidColumnError(key.String())
	}
	col := d.columns[i]
	mask := make(Mask, len(col.Values))
	for j, v := range col.Values {
		mask[j] = math.IsNaN(v)
	}
	return mask, nil
}

// MissingRate returns the fraction of missing rows in the named column.
func MissingRate(d *Dataset, key core.VariableKey) (float64, error) {
	mask, err := DetectMissing(d, key)
	if err != nil {
		return 0, err
	}
	if len(mask) == 0 {
		return 0, nil
	}
	return float64(mask.Count()) / float64(len(mask)), nil
}
