package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"hcm-apartment-pricing/models"
)

var cleanHeader = []string{
	models.ColPrice, models.ColArea, models.ColPricePerM2, models.ColDistrict,
	models.ColProjectName, models.ColRooms, models.ColBathrooms, models.ColDistanceKm,
	"legal_status", "furnishing",
}

// CSVWriter exports clean listings to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(cleanHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one row per listing. It stops early once ctx is done.
func (c *CSVWriter) Write(ctx context.Context, listings []*models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			c.writer.Flush()
			return fmt.Errorf("csv: %w", err)
		}
		row := []string{
			formatFloat(l.Price),
			formatFloat(l.Area),
			formatFloat(l.PricePerM2),
			l.District,
			l.ProjectName,
			formatFloat(l.Rooms),
			formatFloat(l.Bathrooms),
			formatFloat(l.DistanceKm),
			l.LegalStatus,
			l.Furnishing,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
