package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/stickies/internal/apperr"
	"github.com/starford/stickies/internal/checksum"
	"github.com/starford/stickies/internal/kvstore"
	"github.com/starford/stickies/internal/models"
)

// Publisher receives change notifications. *sse.Broker satisfies it.
type Publisher interface {
	PublishItemSet(authKey, dataKey, sum string)
	PublishItemDeleted(authKey, dataKey string)
}

// Service coordinates the KV provider, note validation and change events.
type Service struct {
	kv       kvstore.Provider
	pub      Publisher
	notesKey string
	logger   *slog.Logger
}

// NewService creates a new API service. Values stored under notesKey must be
// valid note collections. pub may be nil.
func NewService(kv kvstore.Provider, pub Publisher, notesKey string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{kv: kv, pub: pub, notesKey: notesKey, logger: logger}
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, authKey, dataKey string) (kvstore.Item, error) {
	return s.kv.Get(ctx, authKey, dataKey)
}

// List returns every item under authKey.
func (s *Service) List(ctx context.Context, authKey string) ([]kvstore.Item, error) {
	return s.kv.List(ctx, authKey)
}

// Set validates and stores value. When ifMatch is non-empty the current
// value's checksum must equal it.
func (s *Service) Set(ctx context.Context, authKey, dataKey string, value []byte, ifMatch string) (string, error) {
	if !json.Valid(value) {
		return "", apperr.ErrUnparseable
	}
	if dataKey == s.notesKey {
		notes, err := models.DecodeNotes(value)
		if err != nil {
			return "", err
		}
		if err := models.ValidateCollection(notes); err != nil {
			return "", err
		}
	}
	if ifMatch != "" {
		cur, err := s.kv.Get(ctx, authKey, dataKey)
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrConflict
		}
		if err != nil {
			return "", err
		}
		if cur.Checksum != ifMatch {
			return "", apperr.ErrConflict
		}
	}
	if err := s.kv.Set(ctx, authKey, dataKey, value); err != nil {
		return "", fmt.Errorf("api: set: %w", err)
	}
	sum := checksum.Sum(value)
	s.logger.Debug("api: item stored",
		slog.String("auth_key", authKey),
		slog.String("data_key", dataKey),
		slog.Int("bytes", len(value)))
	if s.pub != nil {
		s.pub.PublishItemSet(authKey, dataKey, sum)
	}
	return sum, nil
}

// Delete removes one item.
func (s *Service) Delete(ctx context.Context, authKey, dataKey string) error {
	if err := s.kv.Delete(ctx, authKey, dataKey); err != nil {
		return err
	}
	if s.pub != nil {
		s.pub.PublishItemDeleted(authKey, dataKey)
	}
	return nil
}

// DeleteAll removes every item under authKey.
func (s *Service) DeleteAll(ctx context.Context, authKey string) (int, error) {
	n, err := s.kv.DeleteAll(ctx, authKey)
	if err != nil {
		return 0, err
	}
	if n > 0 && s.pub != nil {
		s.pub.PublishItemDeleted(authKey, "")
	}
	return n, nil
}
