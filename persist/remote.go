package persist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tricycle-learn/tricycle"
)

const defaultRemoteTimeout = 5 * time.Second

// HTTPStore is a remote tier backed by an opaque key-value snapshot
// endpoint: PUT /snapshots/{key} stores a snapshot, GET retrieves it.
// The wire protocol is deliberately minimal; the server side is just a
// durable save.
type HTTPStore struct {
	baseURL string
	userID  string
	client  *http.Client
}

// NewHTTPStore creates a remote store against the given base URL.
// client may be nil; a default with a 5s timeout is used.
func NewHTTPStore(baseURL, userID string, client *http.Client) (*HTTPStore, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: empty base URL", ErrInvalidInput)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	return &HTTPStore{baseURL: baseURL, userID: userID, client: client}, nil
}

// Name implements Store.
func (h *HTTPStore) Name() string { return "remote" }

func (h *HTTPStore) snapshotURL(key string) string {
	return fmt.Sprintf("%s/snapshots/%s", h.baseURL, url.PathEscape(key))
}

// Save implements Store.
func (h *HTTPStore) Save(ctx context.Context, snap tricycle.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		h.snapshotURL(snapshotKeys(h.userID)[0]), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote save: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote save: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Load implements Store. Keys are probed in priority order; a 404 moves on
// to the next key.
func (h *HTTPStore) Load(ctx context.Context) (*tricycle.Snapshot, error) {
	for _, key := range snapshotKeys(h.userID) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.snapshotURL(key), nil)
		if err != nil {
			return nil, err
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("remote load: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("remote load: unexpected status %d", resp.StatusCode)
		}
		var snap tricycle.Snapshot
		err = json.NewDecoder(resp.Body).Decode(&snap)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode remote snapshot: %w", err)
		}
		return &snap, nil
	}
	return nil, ErrNoSnapshot
}

// Close implements Store.
func (h *HTTPStore) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
