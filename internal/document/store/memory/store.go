// Package memory holds the corpus in process. It is the default document
// store and the one loaded from a JSON corpus file at startup.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"trustrag/internal/document/models"
	"trustrag/pkg/platform/sentinel"
)

// Store is a read-mostly document set keyed by id.
type Store struct {
	mu   sync.RWMutex
	docs map[string]models.Document
}

func New(docs ...models.Document) (*Store, error) {
	s := &Store{docs: make(map[string]models.Document, len(docs))}
	if err := s.Put(docs...); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads a JSON array of documents.
func LoadFile(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	var docs []models.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	return New(docs...)
}

// Put validates and stores documents, replacing any with the same id.
func (s *Store) Put(docs ...models.Document) error {
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		s.docs[d.ID] = d.Clone()
	}
	return nil
}

// List returns copies of all documents ordered by id.
func (s *Store) List(_ context.Context) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := d.Clone()
	return &c, nil
}
