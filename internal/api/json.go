package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/stickies/internal/checksum"
	"github.com/starford/stickies/internal/kvstore"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: json encode failed", slog.String("error", err.Error()))
	}
}

// writeValue writes a stored value verbatim; it is already valid JSON.
func writeValue(w http.ResponseWriter, etag string, value []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(value)
}

// etagOf returns the quoted checksum of an item, computing it for backends
// that do not store one.
func etagOf(it kvstore.Item) string {
	if it.Checksum == "" {
		return checksum.ETag(it.Value)
	}
	return `"` + it.Checksum + `"`
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}
