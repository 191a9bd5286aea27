package models

import (
	"errors"
	"testing"

	"github.com/starford/stickies/internal/apperr"
)

func TestDecodeNotesEmptyPayloads(t *testing.T) {
	for _, in := range []string{"", "  ", "null", "[]"} {
		notes, err := DecodeNotes([]byte(in))
		if err != nil {
			t.Fatalf("DecodeNotes(%q): %v", in, err)
		}
		if notes == nil || len(notes) != 0 {
			t.Errorf("DecodeNotes(%q) = %#v, want empty slice", in, notes)
		}
	}
}

func TestDecodeNotesUnparseable(t *testing.T) {
	_, err := DecodeNotes([]byte(`{"id":"a"}`))
	if !errors.Is(err, apperr.ErrUnparseable) {
		t.Errorf("err = %v, want ErrUnparseable", err)
	}
}

func TestEncodeNilCollection(t *testing.T) {
	data, err := EncodeNotes(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("encoded = %s", data)
	}
}

func TestValidateCollection(t *testing.T) {
	good := []Note{NewNote("a"), NewNote("b")}
	if err := ValidateCollection(good); err != nil {
		t.Fatalf("valid collection rejected: %v", err)
	}

	legacy := []Note{{ID: "a"}}
	if err := ValidateCollection(legacy); err != nil {
		t.Errorf("missing severity should normalize to info: %v", err)
	}

	dup := []Note{NewNote("a"), NewNote("a")}
	if err := ValidateCollection(dup); !errors.Is(err, apperr.ErrInvalidNote) {
		t.Errorf("duplicate ids: err = %v", err)
	}

	bad := []Note{{ID: "a", Severity: "purple"}}
	if err := ValidateCollection(bad); !errors.Is(err, apperr.ErrInvalidNote) {
		t.Errorf("bad severity: err = %v", err)
	}
}
