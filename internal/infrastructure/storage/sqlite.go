package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/watchlens/backend/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS "watches" (
	"url"            TEXT PRIMARY KEY,
	"site"           TEXT NOT NULL DEFAULT '',
	"title"          TEXT NOT NULL DEFAULT '',
	"price"          REAL,
	"currency"       TEXT NOT NULL DEFAULT '',
	"brand"          TEXT NOT NULL DEFAULT '',
	"model"          TEXT NOT NULL DEFAULT '',
	"reference"      TEXT NOT NULL DEFAULT '',
	"year"           TEXT NOT NULL DEFAULT '',
	"condition"      TEXT NOT NULL DEFAULT '',
	"dial_color"     TEXT NOT NULL DEFAULT '',
	"material"       TEXT NOT NULL DEFAULT '',
	"movement"       TEXT NOT NULL DEFAULT '',
	"description"    TEXT NOT NULL DEFAULT '',
	"images"         TEXT NOT NULL DEFAULT '[]',
	"availability"   TEXT NOT NULL DEFAULT '',
	"specifications" TEXT NOT NULL DEFAULT '{}',
	"updated_at"     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_watches_brand ON watches(brand);
CREATE INDEX IF NOT EXISTS idx_watches_reference ON watches(reference);
`

const upsertRecord = `
INSERT INTO "watches" (
	"url", "site", "title", "price", "currency", "brand", "model", "reference", "year",
	"condition", "dial_color", "material", "movement", "description", "images",
	"availability", "specifications", "updated_at"
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT("url") DO UPDATE SET
	"site" = excluded."site",
	"title" = excluded."title",
	"price" = excluded."price",
	"currency" = excluded."currency",
	"brand" = excluded."brand",
	"model" = excluded."model",
	"reference" = excluded."reference",
	"year" = excluded."year",
	"condition" = excluded."condition",
	"dial_color" = excluded."dial_color",
	"material" = excluded."material",
	"movement" = excluded."movement",
	"description" = excluded."description",
	"images" = excluded."images",
	"availability" = excluded."availability",
	"specifications" = excluded."specifications",
	"updated_at" = excluded."updated_at"
`

const selectCatalog = `
SELECT "url", "site", "title", "price", "currency", "brand", "model", "reference", "year",
	"condition", "dial_color", "material", "movement", "description", "images",
	"availability", "specifications"
FROM "watches"
ORDER BY rowid
`

// SQLiteStore persists the catalog in a single sqlite table keyed by URL
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the sqlite database at path and migrates it.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", domain.ErrStoreFailure, err)
	}
	// sqlite serializes writers; one connection also keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Migrate creates the schema when it does not exist yet.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: migrate: %v", domain.ErrStoreFailure, err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRecords upserts records by URL in one transaction and returns how many were written.
func (s *SQLiteStore) SaveRecords(ctx context.Context, records []domain.ProductRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", domain.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRecord)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare: %v", domain.ErrStoreFailure, err)
	}
	defer stmt.Close()

	updatedAt := s.now().UTC().Unix()
	for i := range records {
		args, err := recordArgs(&records[i], updatedAt)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("%w: save %s: %v", domain.ErrStoreFailure, records[i].URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", domain.ErrStoreFailure, err)
	}
	return len(records), nil
}

// LoadCatalog returns every stored record in first-insertion order.
func (s *SQLiteStore) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, selectCatalog)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	catalog := domain.Catalog{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", domain.ErrStoreFailure, err)
	}
	return catalog, nil
}

func recordArgs(r *domain.ProductRecord, updatedAt int64) ([]any, error) {
	images, err := json.Marshal(nonNilImages(r.Images))
	if err != nil {
		return nil, fmt.Errorf("%w: encode images: %v", domain.ErrStoreFailure, err)
	}
	specs, err := json.Marshal(nonNilSpecs(r.Specifications))
	if err != nil {
		return nil, fmt.Errorf("%w: encode specifications: %v", domain.ErrStoreFailure, err)
	}

	var price sql.NullFloat64
	if r.HasPrice() {
		price = sql.NullFloat64{Float64: *r.Price, Valid: true}
	}

	return []any{
		r.URL, r.Site, r.Title, price, r.Currency, r.Brand, r.Model, r.Reference, r.Year,
		r.Condition, r.DialColor, r.Material, r.Movement, r.Description, string(images),
		r.Availability, string(specs), updatedAt,
	}, nil
}

func scanRecord(rows *sql.Rows) (domain.ProductRecord, error) {
	var (
		r      domain.ProductRecord
		price  sql.NullFloat64
		images string
		specs  string
	)
	if err := rows.Scan(
		&r.URL, &r.Site, &r.Title, &price, &r.Currency, &r.Brand, &r.Model, &r.Reference, &r.Year,
		&r.Condition, &r.DialColor, &r.Material, &r.Movement, &r.Description, &images,
		&r.Availability, &specs,
	); err != nil {
		return r, fmt.Errorf("%w: scan: %v", domain.ErrStoreFailure, err)
	}

	if price.Valid {
		p := price.Float64
		r.Price = &p
	}
	if err := json.Unmarshal([]byte(images), &r.Images); err != nil {
		return r, fmt.Errorf("%w: decode images of %s: %v", domain.ErrStoreFailure, r.URL, err)
	}
	if err := json.Unmarshal([]byte(specs), &r.Specifications); err != nil {
		return r, fmt.Errorf("%w: decode specifications of %s: %v", domain.ErrStoreFailure, r.URL, err)
	}
	if len(r.Images) == 0 {
		r.Images = nil
	}
	if len(r.Specifications) == 0 {
		r.Specifications = nil
	}
	return r, nil
}

func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}

func nonNilSpecs(specs map[string]string) map[string]string {
	if specs == nil {
		return map[string]string{}
	}
	return specs
}
