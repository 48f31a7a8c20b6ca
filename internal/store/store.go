// Package store is the local SQLite cache. It holds the product
// catalog and article set synced from the remote store, plus a record
// of every generated draft with its token accounting.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"blogsmith/internal/core"
)

// Store represents the SQLite-based cache.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new store instance with a SQLite database in the
// given data directory.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "blogsmith.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	productsTable := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		title TEXT,
		body_html TEXT,
		tags TEXT,
		status TEXT,
		handle TEXT,
		image_src TEXT,
		image_alt TEXT,
		synced_at DATETIME
	);`

	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		id INTEGER PRIMARY KEY,
		blog_id INTEGER,
		handle TEXT,
		title TEXT,
		author TEXT,
		tags TEXT,
		body_html TEXT,
		published_at DATETIME,
		synced_at DATETIME
	);`

	draftsTable := `
	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		handle TEXT,
		title TEXT,
		body_html TEXT,
		model_used TEXT,
		input_tokens INTEGER,
		output_tokens INTEGER,
		cost REAL,
		date_generated DATETIME
	);`

	tables := []string{productsTable, articlesTable, draftsTable}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertProducts replaces the cached copy of each product. All rows of
// one sync share the same timestamp.
func (s *Store) UpsertProducts(products []core.Product) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT OR REPLACE INTO products
	(id, title, body_html, tags, status, handle, image_src, image_alt, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	syncedAt := time.Now().UTC()
	for _, p := range products {
		if _, err := tx.Exec(query,
			p.ID, p.Title, p.BodyHTML, p.Tags, p.Status, p.Handle, p.ImageSrc, p.ImageAlt, syncedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert product %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetProductByHandle retrieves a cached product by its handle. A cache
// miss returns nil without an error.
func (s *Store) GetProductByHandle(handle string) (*core.Product, error) {
	query := `
	SELECT id, title, body_html, tags, status, handle, image_src, image_alt
	FROM products
	WHERE handle = ?`

	var p core.Product
	err := s.db.QueryRow(query, handle).Scan(
		&p.ID, &p.Title, &p.BodyHTML, &p.Tags, &p.Status, &p.Handle, &p.ImageSrc, &p.ImageAlt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &p, nil
}

// ListProducts returns all cached products ordered by title.
func (s *Store) ListProducts() ([]core.Product, error) {
	query := `
	SELECT id, title, body_html, tags, status, handle, image_src, image_alt
	FROM products
	ORDER BY title`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.BodyHTML, &p.Tags, &p.Status, &p.Handle, &p.ImageSrc, &p.ImageAlt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpsertArticles replaces the cached copy of each article record.
func (s *Store) UpsertArticles(articles []core.ArticleRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT OR REPLACE INTO articles
	(id, blog_id, handle, title, author, tags, body_html, published_at, synced_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	syncedAt := time.Now().UTC()
	for _, a := range articles {
		if _, err := tx.Exec(query,
			a.ID, a.BlogID, a.Handle, a.Title, a.Author, a.Tags, a.BodyHTML, a.PublishedAt, syncedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert article %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// ListArticles returns the cached articles of a blog, newest first.
func (s *Store) ListArticles(blogID int64) ([]core.ArticleRecord, error) {
	query := `
	SELECT id, blog_id, handle, title, author, tags, body_html, published_at
	FROM articles
	WHERE blog_id = ?
	ORDER BY published_at DESC`

	rows, err := s.db.Query(query, blogID)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []core.ArticleRecord
	for rows.Next() {
		var a core.ArticleRecord
		if err := rows.Scan(
			&a.ID, &a.BlogID, &a.Handle, &a.Title, &a.Author, &a.Tags, &a.BodyHTML, &a.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// Draft is one generated article body with its accounting.
type Draft struct {
	ID            string
	Handle        string
	Title         string
	BodyHTML      string
	ModelUsed     string
	InputTokens   int
	OutputTokens  int
	Cost          float64
	DateGenerated time.Time
}

// SaveDraft stores a generated draft.
func (s *Store) SaveDraft(draft Draft) error {
	query := `
	INSERT OR REPLACE INTO drafts
	(id, handle, title, body_html, model_used, input_tokens, output_tokens, cost, date_generated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		draft.ID, draft.Handle, draft.Title, draft.BodyHTML, draft.ModelUsed,
		draft.InputTokens, draft.OutputTokens, draft.Cost, draft.DateGenerated,
	)
	return err
}

// ListDrafts returns all drafts, newest first.
func (s *Store) ListDrafts() ([]Draft, error) {
	query := `
	SELECT id, handle, title, body_html, model_used, input_tokens, output_tokens, cost, date_generated
	FROM drafts
	ORDER BY date_generated DESC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(
			&d.ID, &d.Handle, &d.Title, &d.BodyHTML, &d.ModelUsed,
			&d.InputTokens, &d.OutputTokens, &d.Cost, &d.DateGenerated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// CacheStats represents cache statistics
type CacheStats struct {
	ProductCount int
	ArticleCount int
	DraftCount   int
	CacheSize    int64
	LastUpdated  time.Time
}

// GetCacheStats returns statistics about the cache
func (s *Store) GetCacheStats() (*CacheStats, error) {
	stats := &CacheStats{}

	queries := map[string]*int{
		"SELECT COUNT(*) FROM products": &stats.ProductCount,
		"SELECT COUNT(*) FROM articles": &stats.ArticleCount,
		"SELECT COUNT(*) FROM drafts":   &stats.DraftCount,
	}

	for query, target := range queries {
		err := s.db.QueryRow(query).Scan(target)
		if err != nil {
			return nil, fmt.Errorf("failed to get count: %w", err)
		}
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.CacheSize = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}

// ClearCache removes all cached data
func (s *Store) ClearCache() error {
	tables := []string{"products", "articles", "drafts"}

	for _, table := range tables {
		_, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			return fmt.Errorf("failed to clear %s table: %w", table, err)
		}
	}

	// Vacuum to reclaim space
	_, err := s.db.Exec("VACUUM")
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	return nil
}
