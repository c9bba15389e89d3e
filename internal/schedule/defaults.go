package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Defaults download configuration used by the "auto" form.
const (
	autoDefaultsURL    = "https://defaults.tradecal.io/schedule/defaults.properties"
	autoDefaultsPeriod = 24 * time.Hour

	maxDefaultsSize = 8 << 20
	fetchTimeout    = 30 * time.Second
)

// DefaultsStore persists defaults documents across process restarts. The
// manager writes every accepted document to the store and seeds itself from
// it when attached.
type DefaultsStore interface {
	// SaveDefaults persists a validated defaults document.
	SaveDefaults(ctx context.Context, data []byte) error

	// LoadDefaults returns the most recently persisted document, or
	// (nil, nil) when none exists.
	LoadDefaults(ctx context.Context) ([]byte, error)
}

// defaultsManager owns the process-wide cached defaults document and its
// background refresh task. The cache swap is single-writer: SetDefaults and
// the periodic fetch are mutually exclusive, and readers always see a
// complete document. A generation counter guarantees that no fetch result
// is applied after a newer download configuration has taken effect.
type defaultsManager struct {
	mu     sync.RWMutex
	data   []byte
	doc    *document
	gen    uint64
	cancel context.CancelFunc
	store  DefaultsStore
	client *http.Client
}

var sharedDefaults = newDefaultsManager()

func newDefaultsManager() *defaultsManager {
	return &defaultsManager{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// DownloadDefaults configures defaults downloading for the process. The
// config is one of:
//
//	""           stop periodic download
//	URL          download once and stop periodic download
//	"URL,period" download periodically (period is a Go duration)
//	"auto"       download periodically from the built-in location
//
// Malformed configs disable downloading; this call never fails.
func DownloadDefaults(config string) { sharedDefaults.downloadDefaults(config) }

// SetDefaults validates data as a defaults document and, when valid,
// atomically replaces the shared cache, reporting whether the swap
// occurred. Invalid data leaves the cache untouched. Schedules built after
// the swap see the new defaults; schedules already built are unaffected.
func SetDefaults(data []byte) bool { return sharedDefaults.setDefaults(data) }

// AttachDefaultsStore wires a persistence backend into the shared defaults
// manager and, when the cache is still empty, seeds it from the last
// persisted document.
func AttachDefaultsStore(ctx context.Context, store DefaultsStore) error {
	return sharedDefaults.attachStore(ctx, store)
}

func (m *defaultsManager) downloadDefaults(config string) {
	url, period, active := parseDownloadConfig(config)

	m.mu.Lock()
	m.gen++
	gen := m.gen
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if !active {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	if period <= 0 {
		go func() {
			defer cancel()
			m.fetch(ctx, gen, url)
		}()
		return
	}
	go m.fetchLoop(ctx, gen, url, period)
}

// parseDownloadConfig parses the four download config forms. active is
// false for the empty config and for anything malformed.
func parseDownloadConfig(config string) (url string, period time.Duration, active bool) {
	config = strings.TrimSpace(config)
	if config == "" {
		return "", 0, false
	}
	if config == "auto" {
		return autoDefaultsURL, autoDefaultsPeriod, true
	}
	if i := strings.LastIndex(config, ","); i >= 0 {
		d, err := time.ParseDuration(strings.TrimSpace(config[i+1:]))
		if err != nil || d <= 0 {
			return "", 0, false
		}
		url = strings.TrimSpace(config[:i])
		if !validDefaultsURL(url) {
			return "", 0, false
		}
		return url, d, true
	}
	if !validDefaultsURL(config) {
		return "", 0, false
	}
	return config, 0, true
}

func validDefaultsURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// fetchLoop downloads immediately and then on every tick until cancelled.
// A failed fetch is retried on the next tick only.
func (m *defaultsManager) fetchLoop(ctx context.Context, gen uint64, url string, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		m.fetch(ctx, gen, url)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *defaultsManager) fetch(ctx context.Context, gen uint64, url string) {
	data, err := m.download(ctx, url)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("defaults download failed", "url", url, "error", err)
		}
		return
	}
	if !m.apply(gen, data) {
		slog.Debug("defaults download discarded", "url", url)
	}
}

func (m *defaultsManager) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDefaultsSize))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// apply installs fetched document bytes unless the configuration changed
// since the fetch was scheduled or the document is malformed.
func (m *defaultsManager) apply(gen uint64, data []byte) bool {
	doc, err := parseDocument(data)
	if err != nil {
		slog.Warn("fetched defaults document rejected", "error", err)
		return false
	}
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	m.data = data
	m.doc = doc
	store := m.store
	m.mu.Unlock()

	m.persist(store, data)
	return true
}

func (m *defaultsManager) setDefaults(data []byte) bool {
	doc, err := parseDocument(data)
	if err != nil {
		return false
	}
	data = bytes.Clone(data)

	m.mu.Lock()
	m.data = data
	m.doc = doc
	store := m.store
	m.mu.Unlock()

	m.persist(store, data)
	return true
}

func (m *defaultsManager) attachStore(ctx context.Context, store DefaultsStore) error {
	data, err := store.LoadDefaults(ctx)
	if err != nil {
		return fmt.Errorf("loading persisted defaults: %w", err)
	}

	m.mu.Lock()
	m.store = store
	seed := m.doc == nil && len(data) > 0
	m.mu.Unlock()

	if seed {
		if doc, err := parseDocument(data); err == nil {
			m.mu.Lock()
			if m.doc == nil {
				m.data = data
				m.doc = doc
			}
			m.mu.Unlock()
		} else {
			slog.Warn("persisted defaults document rejected", "error", err)
		}
	}
	return nil
}

func (m *defaultsManager) persist(store DefaultsStore, data []byte) {
	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.SaveDefaults(ctx, data); err != nil {
		slog.Warn("persisting defaults document failed", "error", err)
	}
}

// currentDoc returns a consistent snapshot of the cached document, falling
// back to the built-in defaults when nothing has been set or downloaded.
func (m *defaultsManager) currentDoc() *document {
	m.mu.RLock()
	doc := m.doc
	m.mu.RUnlock()
	if doc == nil {
		return builtinDocument
	}
	return doc
}

func currentDocument() *document { return sharedDefaults.currentDoc() }
