package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/stickies/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListItems handles GET /{authKey}.
//
//	@Summary		List every value stored for a caller
//	@Tags			items
//	@Produce		json
//	@Param			authKey	path		string	true	"Caller key"
//	@Success		200		{array}		ItemResponse
//	@Security		BearerAuth
//	@Router			/{authKey} [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	authKey := chi.URLParam(r, "authKey")
	items, err := h.svc.List(r.Context(), authKey)
	if err != nil {
		slog.Error("api: list items failed", slog.String("auth_key", authKey), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	out := make([]ItemResponse, len(items))
	for i, it := range items {
		out[i] = ItemResponse{DataKey: it.DataKey, DataValue: it.Value, Checksum: it.Checksum, UpdatedAt: it.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetItem handles GET /{authKey}/{dataKey}. The body is the stored JSON
// value verbatim.
//
//	@Summary		Get one stored value
//	@Tags			items
//	@Produce		json
//	@Param			authKey	path	string	true	"Caller key"
//	@Param			dataKey	path	string	true	"Value key"
//	@Success		200
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{authKey}/{dataKey} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	authKey, dataKey := chi.URLParam(r, "authKey"), chi.URLParam(r, "dataKey")
	it, err := h.svc.Get(r.Context(), authKey, dataKey)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("api: get item failed",
				slog.String("auth_key", authKey),
				slog.String("data_key", dataKey),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	etag := etagOf(it)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeValue(w, etag, it.Value)
}

// SetItem handles POST /.
//
//	@Summary		Create or overwrite a value
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			If-Match	header	string			false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	SetItemRequest	true	"Value to store"
//	@Success		200		{object}	SetItemResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ [post]
func (h *Handler) SetItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SetItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.AuthKey == "" || req.DataKey == "" || len(req.DataValue) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("auth_key, data_key and data_value are required"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	sum, err := h.svc.Set(r.Context(), req.AuthKey, req.DataKey, req.DataValue, ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUnparseable), errors.Is(err, apperr.ErrInvalidNote):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("api: set item failed",
				slog.String("auth_key", req.AuthKey),
				slog.String("data_key", req.DataKey),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.Header().Set("ETag", `"`+sum+`"`)
	writeJSON(w, http.StatusOK, SetItemResponse{Message: "ok", Checksum: sum})
}

// DeleteItem handles DELETE /{authKey}/{dataKey}.
//
//	@Summary		Delete one stored value
//	@Tags			items
//	@Param			authKey	path	string	true	"Caller key"
//	@Param			dataKey	path	string	true	"Value key"
//	@Success		204		"Value deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/{authKey}/{dataKey} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	authKey, dataKey := chi.URLParam(r, "authKey"), chi.URLParam(r, "dataKey")
	if err := h.svc.Delete(r.Context(), authKey, dataKey); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("api: delete item failed", slog.String("auth_key", authKey), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll handles DELETE /{authKey}.
//
//	@Summary		Delete every value stored for a caller
//	@Tags			items
//	@Param			authKey	path		string	true	"Caller key"
//	@Success		200		{object}	DeleteAllResponse
//	@Security		BearerAuth
//	@Router			/{authKey} [delete]
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	authKey := chi.URLParam(r, "authKey")
	n, err := h.svc.DeleteAll(r.Context(), authKey)
	if err != nil {
		slog.Error("api: delete all failed", slog.String("auth_key", authKey), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DeleteAllResponse{Deleted: n})
}
