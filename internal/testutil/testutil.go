// Package testutil provides shared test helpers: an in-memory persistence
// collaborator and temporary KV stores.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/starford/stickies/internal/kvstore"
	"github.com/starford/stickies/internal/models"
)

// ErrInjected is returned by Persistence when a failure is requested.
var ErrInjected = errors.New("injected failure")

// Persistence is an in-memory canvas persistence collaborator. Collections
// are stored JSON-encoded so loads return independent copies.
type Persistence struct {
	mu          sync.Mutex
	blobs       map[string][]byte
	FailLoad    bool
	FailCommit  bool
	LoadCalls   int
	CommitCalls int
}

// NewPersistence returns an empty in-memory collaborator.
func NewPersistence() *Persistence {
	return &Persistence{blobs: make(map[string][]byte)}
}

// Seed stores notes under key without counting a commit.
func (p *Persistence) Seed(t *testing.T, key string, notes []models.Note) {
	t.Helper()
	data, err := json.Marshal(notes)
	if err != nil {
		t.Fatal(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blobs[key] = data
}

// SeedRaw stores an arbitrary payload under key.
func (p *Persistence) SeedRaw(key string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blobs[key] = data
}

// Load implements canvas.Persistence.
func (p *Persistence) Load(_ context.Context, key string) ([]models.Note, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LoadCalls++
	if p.FailLoad {
		return nil, ErrInjected
	}
	data, ok := p.blobs[key]
	if !ok {
		return []models.Note{}, nil
	}
	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Commit implements canvas.Persistence.
func (p *Persistence) Commit(_ context.Context, key string, notes []models.Note) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CommitCalls++
	if p.FailCommit {
		return ErrInjected
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return err
	}
	p.blobs[key] = data
	return nil
}

// Stored decodes the collection currently stored under key.
func (p *Persistence) Stored(t *testing.T, key string) []models.Note {
	t.Helper()
	notes, err := (&Persistence{blobs: p.snapshot(), FailLoad: false}).Load(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	return notes
}

func (p *Persistence) snapshot() map[string][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string][]byte, len(p.blobs))
	for k, v := range p.blobs {
		out[k] = v
	}
	return out
}

// TestKV creates a temporary SQLite KV store that is automatically cleaned up.
func TestKV(t *testing.T) *kvstore.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "stickies-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := kvstore.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
