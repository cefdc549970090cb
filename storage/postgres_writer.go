package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"hcm-apartment-pricing/models"
	"hcm-apartment-pricing/utils"
)

const (
	insertBatchSize = 50
	insertColumns   = 10
)

// PostgresWriter stores a snapshot of the clean dataset in PostgreSQL. Each
// Write replaces the previous snapshot.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, waits for it to accept
// pings, runs schema migrations and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	backoff := &utils.Backoff{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := backoff.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id                    SERIAL PRIMARY KEY,
			price                 NUMERIC(16,0) NOT NULL,
			area                  NUMERIC(8,2)  NOT NULL,
			price_per_m2          NUMERIC(14,2) NOT NULL,
			district              TEXT          NOT NULL,
			project_name          TEXT          NOT NULL DEFAULT '',
			rooms                 NUMERIC(4,1)  NOT NULL,
			bathrooms             NUMERIC(4,1)  NOT NULL,
			distance_to_center_km NUMERIC(6,2)  NOT NULL,
			legal_status          VARCHAR(32)   NOT NULL,
			furnishing            VARCHAR(32)   NOT NULL,
			created_at            TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_district ON listings(district);
		CREATE INDEX IF NOT EXISTS idx_listings_price    ON listings(price);
	`)
	return err
}

// Write replaces the stored snapshot with listings inside one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for i := 0; i < len(listings); i += insertBatchSize {
		end := i + insertBatchSize
		if end > len(listings) {
			end = len(listings)
		}
		query, args := buildInsert(listings[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// buildInsert renders a multi-row INSERT with positional placeholders.
func buildInsert(batch []*models.Listing) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*insertColumns)

	for idx, l := range batch {
		base := idx * insertColumns
		ph := make([]string, insertColumns)
		for c := range ph {
			ph[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			l.Price, l.Area, l.PricePerM2, l.District, l.ProjectName,
			l.Rooms, l.Bathrooms, l.DistanceKm, l.LegalStatus, l.Furnishing)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (price, area, price_per_m2, district, project_name,
			rooms, bathrooms, distance_to_center_km, legal_status, furnishing)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
