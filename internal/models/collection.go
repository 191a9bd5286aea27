package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/stickies/internal/apperr"
)

// DecodeNotes parses a stored note collection. An empty or null payload
// is an empty collection.
func DecodeNotes(data []byte) ([]Note, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Note{}, nil
	}
	var notes []Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrUnparseable, err)
	}
	if notes == nil {
		notes = []Note{}
	}
	return notes, nil
}

// EncodeNotes serializes a collection; nil encodes as an empty array.
func EncodeNotes(notes []Note) ([]byte, error) {
	if notes == nil {
		notes = []Note{}
	}
	return json.Marshal(notes)
}

// ValidateCollection checks every record after normalization and rejects
// duplicate ids.
func ValidateCollection(notes []Note) error {
	seen := make(map[string]struct{}, len(notes))
	for i, n := range notes {
		if err := n.Normalize().Validate(); err != nil {
			return fmt.Errorf("%w: note %d: %w", apperr.ErrInvalidNote, i, err)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", apperr.ErrInvalidNote, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}
