package storage

import (
	"context"

	"hcm-apartment-pricing/models"
)

// ListingWriter is the interface any clean-dataset sink must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.Listing) error
	Close() error
}

// DatasetSource loads the raw listing dataset.
type DatasetSource interface {
	ReadFile(path string) (*models.Dataset, error)
}

var (
	_ ListingWriter = (*CSVWriter)(nil)
	_ ListingWriter = (*PostgresWriter)(nil)
	_ DatasetSource = (*DatasetReader)(nil)
)
