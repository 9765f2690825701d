// Package postgres loads the corpus from a PostgreSQL "documents" table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustrag/internal/document/models"
	"trustrag/pkg/platform/sentinel"
)

const selectColumns = `SELECT id, title, content, domain, COALESCE(classification, '') FROM documents`

// Store reads documents through a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for dsn and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (s *Store) List(ctx context.Context) ([]models.Document, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return docs, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Document, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	doc, err := pgx.CollectExactlyOneRow(rows, scanDocument)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

func scanDocument(row pgx.CollectableRow) (models.Document, error) {
	var (
		d      models.Document
		domain string
	)
	if err := row.Scan(&d.ID, &d.Title, &d.Content, &domain, &d.Classification); err != nil {
		return models.Document{}, err
	}
	parsed, err := models.ParseDomain(domain)
	if err != nil {
		return models.Document{}, fmt.Errorf("document %s: %w", d.ID, err)
	}
	d.Domain = parsed
	return d, nil
}
