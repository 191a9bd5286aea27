package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name    string        `yaml:"name"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func TestParseKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 80}
	if err := Parse([]byte("port: 8080\ntimeout: 3s\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" || s.Port != 8080 || s.Timeout != 3*time.Second {
		t.Errorf("got %+v", s)
	}
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("STICKIES_TEST_NAME", "from-env")
	s := sample{Port: 1}
	if err := Parse([]byte("name: ${STICKIES_TEST_NAME}\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "from-env" {
		t.Errorf("name = %q", s.Name)
	}
}

func TestParseValidates(t *testing.T) {
	s := sample{}
	err := Parse([]byte("port: 0\n"), &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := sample{Port: 1}
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()

	s := sample{Name: "default", Port: 80}
	if err := LoadOptional(filepath.Join(dir, "nope.yaml"), &s); err != nil {
		t.Fatalf("missing file should keep defaults: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("name = %q", s.Name)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("name: file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadOptional(path, &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "file" || s.Port != 80 {
		t.Errorf("got %+v", s)
	}
}
