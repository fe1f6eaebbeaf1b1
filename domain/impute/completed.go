package impute

import (
	"fmt"

	"goimpute/domain/core"
	"goimpute/domain/table"
)

// Complete builds a completed dataset: a full copy of ds in which the missing
// entries of the target column, and only those, are overwritten with one
// run's imputed values (in mask row order). Every other cell is untouched
// and the result shares no storage with the original.
func Complete(ds *table.Dataset, target core.VariableKey, mask table.Mask, imputed []float64) (*table.Dataset, error) {
	if len(mask) != ds.RowCount() {
		return nil, fmt.Errorf("%w: mask has %d entries, dataset has %d rows",
			core.ErrMaskLengthMismatch, len(mask), ds.RowCount())
	}
	if len(imputed) != mask.Count() {
		return nil, fmt.Errorf("got %d imputed values for %d missing rows in %q",
			len(imputed), mask.Count(), target)
	}

	values, err := ds.Values(target)
	if err != nil {
		return nil, err
	}
	next := 0
	for i, missing := range mask {
		if missing {
			values[i] = imputed[next]
			next++
		}
	}
	return ds.WithValues(target, values)
}
