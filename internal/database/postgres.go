package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"flight_catalog/internal/config"
)

// undefined_table
const pqUndefinedTable = "42P01"

// DB wraps the Postgres connection pool
type DB struct {
	*sql.DB
}

// PostgresDSN builds a connection URL with every component escaped
func PostgresDSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.DBName,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{cfg.SSLMode}}.Encode()
	}
	return u.String()
}

// NewPostgresDB connects to Postgres and verifies the connection
func NewPostgresDB(cfg config.PostgresConfig) (*DB, error) {
	db, err := sql.Open("postgres", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to Postgres")
	return &DB{db}, nil
}

// PostgresStore keeps named catalog documents in the catalog_documents
// table, one row per name. Every Save overwrites the row.
type PostgresStore struct {
	db   *DB
	name string
}

// NewPostgresStore creates a store for the named document
func NewPostgresStore(db *DB, name string) *PostgresStore {
	return &PostgresStore{db: db, name: name}
}

// EnsureSchema creates the documents table if it does not exist
func (ps *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS catalog_documents (
			name       TEXT PRIMARY KEY,
			revision   UUID NOT NULL,
			document   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := ps.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create catalog_documents table: %w", err)
	}
	return nil
}

// Load returns the stored document, or ErrDocumentNotFound when there is no
// row for the name or the table has not been created yet
func (ps *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	query := `SELECT document FROM catalog_documents WHERE name = $1`

	var doc []byte
	err := ps.db.QueryRowContext(ctx, query, ps.name).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
			return nil, fmt.Errorf("catalog %s: %w", ps.name, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to query catalog document: %w", err)
	}
	return doc, nil
}

// Save upserts the document under the store's name. revision must be a UUID.
func (ps *PostgresStore) Save(ctx context.Context, revision string, doc []byte) error {
	rev, err := uuid.Parse(revision)
	if err != nil {
		return fmt.Errorf("invalid revision %q: %w", revision, err)
	}

	query := `
		INSERT INTO catalog_documents (name, revision, document, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE
		SET revision = EXCLUDED.revision, document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`
	if _, err := ps.db.ExecContext(ctx, query, ps.name, rev.String(), string(doc)); err != nil {
		return fmt.Errorf("failed to save catalog document: %w", err)
	}

	log.Printf("Saved catalog %s revision %s to Postgres (%d bytes)", ps.name, rev, len(doc))
	return nil
}

// Info returns metadata about the stored revision
func (ps *PostgresStore) Info(ctx context.Context) (*DocumentInfo, error) {
	query := `
		SELECT revision, LENGTH(document), updated_at
		FROM catalog_documents
		WHERE name = $1
	`

	info := DocumentInfo{Name: ps.name}
	err := ps.db.QueryRowContext(ctx, query, ps.name).Scan(&info.Revision, &info.Size, &info.SavedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
			return nil, fmt.Errorf("catalog %s: %w", ps.name, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("failed to query catalog info: %w", err)
	}
	return &info, nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable
}
