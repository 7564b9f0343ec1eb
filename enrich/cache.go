// ABOUTME: SQLite-backed enrichment record cache
// ABOUTME: Long-lived store of identity data keyed by lowercase email
package enrich

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	_ "github.com/mattn/go-sqlite3"

	"github.com/blsync/blsync/models"
)

// Cache stores enrichment records across sync runs. Records are keyed by
// lowercase email and overwritten on put.
type Cache struct {
	db *sql.DB
}

// DefaultCachePath returns the XDG-compliant cache database location.
func DefaultCachePath() string {
	return filepath.Join(xdg.DataHome, "blsync", "enrichment.db")
}

// OpenCache opens (or creates) the cache database at the given path.
func OpenCache(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Single connection avoids database locked errors under SQLite.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS enrichment (
			email TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return nil
}

// Get returns the cached record for an email, nil when absent.
func (c *Cache) Get(ctx context.Context, email string) (*models.EnrichmentRecord, error) {
	record := &models.EnrichmentRecord{}
	err := c.db.QueryRowContext(ctx, `
		SELECT email, name, title, company, linkedin_url, summary, source, updated_at
		FROM enrichment WHERE email = ?
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&record.Email,
		&record.Name,
		&record.Title,
		&record.Company,
		&record.LinkedInURL,
		&record.Summary,
		&record.Source,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read enrichment record: %w", err)
	}
	return record, nil
}

// Put stores a record, replacing any previous entry for the email.
func (c *Cache) Put(ctx context.Context, record models.EnrichmentRecord) error {
	email := strings.ToLower(strings.TrimSpace(record.Email))
	if email == "" {
		return fmt.Errorf("enrichment record requires an email")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO enrichment
			(email, name, title, company, linkedin_url, summary, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, email, record.Name, record.Title, record.Company, record.LinkedInURL,
		record.Summary, record.Source, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store enrichment record: %w", err)
	}
	return nil
}
