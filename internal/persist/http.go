package persist

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/starford/stickies/internal/checksum"
	"github.com/starford/stickies/internal/models"
)

// HTTP talks to the notes KV service. Every call is a single attempt.
type HTTP struct {
	endpoint string
	authKey  string
	token    string
	client   *http.Client
	logger   *slog.Logger

	mu       sync.Mutex
	lastSums map[string]string
}

// HTTPOption configures an HTTP backend.
type HTTPOption func(*HTTP)

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) HTTPOption {
	return func(h *HTTP) { h.token = token }
}

// WithTimeout bounds each Load and Commit.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) { h.client.Timeout = d }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) { h.logger = l }
}

// NewHTTP returns a client for the service at endpoint storing values under
// authKey.
func NewHTTP(endpoint, authKey string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: strings.TrimRight(endpoint, "/"),
		authKey:  authKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		lastSums: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = orDefault(h.logger)
	return h
}

func (h *HTTP) itemURL(key string) string {
	return h.endpoint + "/" + url.PathEscape(h.authKey) + "/" + url.PathEscape(key)
}

func (h *HTTP) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Load fetches the collection stored under key. A missing key is an empty
// collection.
func (h *HTTP) Load(ctx context.Context, key string) ([]models.Note, error) {
	req, err := h.newRequest(ctx, http.MethodGet, h.itemURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		h.remember(key, "")
		return []models.Note{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("persist: load: %s", statusError(resp))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("persist: load: read body: %w", err)
	}
	notes, err := models.DecodeNotes(data)
	if err != nil {
		return nil, fmt.Errorf("persist: load: %w", err)
	}
	h.remember(key, strings.Trim(resp.Header.Get("ETag"), `"`))
	h.logger.Debug("persist: loaded", slog.String("key", key), slog.Int("notes", len(notes)))
	return notes, nil
}

type setItemBody struct {
	AuthKey   string          `json:"auth_key"`
	DataKey   string          `json:"data_key"`
	DataValue json.RawMessage `json:"data_value"`
}

type setItemReply struct {
	Message  string `json:"message"`
	Checksum string `json:"checksum"`
}

// Commit overwrites the collection stored under key.
func (h *HTTP) Commit(ctx context.Context, key string, notes []models.Note) (err error) {
	value, err := models.EncodeNotes(notes)
	if err != nil {
		return fmt.Errorf("persist: commit: encode: %w", err)
	}
	body, err := json.Marshal(setItemBody{AuthKey: h.authKey, DataKey: key, DataValue: value})
	if err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}
	// The change event can arrive before the reply, so the sum is recorded
	// first and taken back if the write fails.
	sum := checksum.Sum(value)
	prev := h.swapSum(key, sum)
	stored := false
	defer func() {
		if err != nil && !stored {
			h.restoreSum(key, sum, prev)
		}
	}()

	req, err := h.newRequest(ctx, http.MethodPost, h.endpoint+"/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("persist: commit: %s", statusError(resp))
	}
	stored = true
	var reply setItemReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("persist: commit: decode reply: %w", err)
	}
	if reply.Checksum != "" {
		h.remember(key, reply.Checksum)
	}
	h.logger.Debug("persist: committed", slog.String("key", key), slog.Int("notes", len(notes)))
	return nil
}

// Watch follows the service's event stream and calls onChange when the
// value under key is replaced or deleted by another writer.
func (h *HTTP) Watch(ctx context.Context, key string, onChange func()) error {
	req, err := h.newRequest(ctx, http.MethodGet, h.endpoint+"/events", nil)
	if err != nil {
		return fmt.Errorf("persist: watch: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any request timeout.
	stream := &http.Client{Transport: h.client.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		return fmt.Errorf("persist: watch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("persist: watch: %s", statusError(resp))
	}

	h.logger.Info("persist: watching events", slog.String("endpoint", h.endpoint), slog.String("key", key))

	var event string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if h.external(event, key, data) {
				onChange()
			}
		case line == "":
			event = ""
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("persist: watch: %w", err)
	}
	return fmt.Errorf("persist: watch: stream closed")
}

type itemEvent struct {
	AuthKey  string `json:"auth_key"`
	DataKey  string `json:"data_key"`
	Checksum string `json:"checksum"`
}

// external reports whether an event touches key and was not caused by
// this client's own last write.
func (h *HTTP) external(event, key, data string) bool {
	var ev itemEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return false
	}
	if ev.AuthKey != h.authKey {
		return false
	}
	switch event {
	case "item.set":
		if ev.DataKey != key {
			return false
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if ev.Checksum != "" && ev.Checksum == h.lastSums[key] {
			return false
		}
		h.lastSums[key] = ev.Checksum
		return true
	case "item.deleted":
		if ev.DataKey != "" && ev.DataKey != key {
			return false
		}
		h.remember(key, "")
		return true
	}
	return false
}

func (h *HTTP) remember(key, sum string) {
	h.mu.Lock()
	h.lastSums[key] = sum
	h.mu.Unlock()
}

// swapSum records sum for key and returns the sum it replaced.
func (h *HTTP) swapSum(key, sum string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.lastSums[key]
	h.lastSums[key] = sum
	return prev
}

// restoreSum puts prev back unless something newer replaced sum meanwhile.
func (h *HTTP) restoreSum(key, sum, prev string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastSums[key] == sum {
		h.lastSums[key] = prev
	}
}

func statusError(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Sprintf("status %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
