package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustrag/internal/document/models"
	"trustrag/pkg/platform/sentinel"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"b","title":"Handbook","content":"welcome","domain":"public"},
		{"id":"a","title":"Payroll","content":"salary bands","domain":"finance"}
	]`), 0o600))

	store, err := LoadFile(path)
	require.NoError(t, err)

	docs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, models.DomainFinance, docs[0].Domain)
}

func TestLoadFileRejectsUnknownDomain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","content":"c","domain":"sales"}]`), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestGetReturnsCopy(t *testing.T) {
	store, err := New(models.Document{ID: "d1", Content: "orig", Domain: models.DomainPublic})
	require.NoError(t, err)

	d, err := store.Get(context.Background(), "d1")
	require.NoError(t, err)
	d.Content = "mutated"

	again, err := store.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "orig", again.Content)

	_, err = store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
