package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestKVConfig_UnknownBackend(t *testing.T) {
	cfg := KVConfig{Backend: "memcached"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestKVConfig_RedisNeedsAddr(t *testing.T) {
	cfg := KVConfig{Backend: KVBackendRedis}
	if err := cfg.Validate(); err == nil {
		t.Fatal("redis backend without addr should fail")
	}
	cfg.Redis.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("redis backend with addr should pass: %v", err)
	}
}

func TestKVConfig_SQLiteIgnoresRedis(t *testing.T) {
	cfg := KVConfig{Backend: KVBackendSQLite, SQLite: SQLiteConfig{Path: "x.db"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sqlite backend should not need redis settings: %v", err)
	}
}

func TestBoardConfig_BackendRequirements(t *testing.T) {
	cfg := NewDefaultConfig().Board
	cfg.Backend = BoardBackendFile
	cfg.Endpoint = ""
	cfg.AuthKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("file backend should not need an endpoint: %v", err)
	}

	cfg.FilePath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("file backend without file_path should fail")
	}

	cfg = NewDefaultConfig().Board
	cfg.Endpoint = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("http backend without endpoint should fail")
	}
}

func TestBoardConfig_CellSize(t *testing.T) {
	cfg := NewDefaultConfig().Board
	cfg.CellWidth = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero cell width should fail")
	}
}
