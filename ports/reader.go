package ports

import (
	"context"

	"goimpute/domain/table"
)

// DatasetReaderPort loads a tabular dataset from an external source. The
// implementation decides the format; the core only requires the result to
// satisfy the Dataset invariants (equal-length named columns, stable row
// index, NaN as the explicit missing marker).
type DatasetReaderPort interface {
	ReadDataset(ctx context.Context, path string) (*table.Dataset, error)
}
