package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"adcraft/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	feature     TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	url         TEXT NOT NULL,
	mime        TEXT NOT NULL,
	width       INTEGER NOT NULL DEFAULT 0,
	height      INTEGER NOT NULL DEFAULT 0,
	bytes       INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assets_created_at ON assets(created_at DESC);
`

// Catalog records metadata for every asset the result store persists. It is
// an embedded SQLite database living alongside the asset files, so the whole
// deployment stays a single directory.
type Catalog struct {
	db *sql.DB
}

// Open opens (and if needed creates) the catalog database at path.
func Open(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("catalog: db path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	// The catalog is written by concurrent request handlers; a single
	// connection sidesteps SQLITE_BUSY without a retry loop.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Insert records a new asset. Assets are immutable, so there is no update path.
func (c *Catalog) Insert(ctx context.Context, asset domain.Asset) error {
	if asset.ID == "" {
		return errors.New("catalog: asset id is required")
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO assets (id, kind, feature, storage_key, url, mime, width, height, bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, string(asset.Kind), string(asset.Feature), asset.StorageKey,
		asset.URL, asset.MIME, asset.Width, asset.Height, asset.Bytes, asset.CreatedAt)
	if err != nil {
		return fmt.Errorf("catalog: insert asset: %w", err)
	}
	return nil
}

// Get returns a single asset by id.
func (c *Catalog) Get(ctx context.Context, id string) (*domain.Asset, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, kind, feature, storage_key, url, mime, width, height, bytes, created_at
		 FROM assets WHERE id = ?`, id)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("catalog: select asset: %w", err)
	}
	return asset, nil
}

// List returns assets ordered newest first.
func (c *Catalog) List(ctx context.Context, limit, offset int) ([]domain.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, kind, feature, storage_key, url, mime, width, height, bytes, created_at
		 FROM assets ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("catalog: list assets: %w", err)
	}
	defer rows.Close()

	var items []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan asset: %w", err)
		}
		items = append(items, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate assets: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var kind, feature string
	if err := row.Scan(&asset.ID, &kind, &feature, &asset.StorageKey, &asset.URL,
		&asset.MIME, &asset.Width, &asset.Height, &asset.Bytes, &asset.CreatedAt); err != nil {
		return nil, err
	}
	asset.Kind = domain.AssetKind(kind)
	asset.Feature = domain.Feature(feature)
	return &asset, nil
}
