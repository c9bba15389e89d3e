package schedule

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSetDefaultsValidatesAndSwaps(t *testing.T) {
	m := newDefaultsManager()

	if !m.setDefaults([]byte(testDocument)) {
		t.Fatal("setDefaults rejected a valid document")
	}
	if _, ok := m.currentDoc().lookup("STOCK.AAA"); !ok {
		t.Error("swapped document not visible to readers")
	}

	// Invalid bytes are reported via the result and leave the cache alone.
	if m.setDefaults([]byte("garbage")) {
		t.Fatal("setDefaults accepted garbage")
	}
	if _, ok := m.currentDoc().lookup("STOCK.AAA"); !ok {
		t.Error("failed swap disturbed the cache")
	}
}

func TestSetDefaultsIdempotent(t *testing.T) {
	m := newDefaultsManager()
	data := []byte(testDocument)
	if !m.setDefaults(data) || !m.setDefaults(data) {
		t.Fatal("repeated setDefaults with the same document failed")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !bytes.Equal(m.data, data) {
		t.Error("cache content drifted across identical swaps")
	}
}

func TestCurrentDocFallsBackToBuiltin(t *testing.T) {
	m := newDefaultsManager()
	if m.currentDoc() != builtinDocument {
		t.Error("empty manager does not serve built-in defaults")
	}
}

func TestParseDownloadConfig(t *testing.T) {
	tests := []struct {
		config string
		url    string
		period time.Duration
		active bool
	}{
		{"", "", 0, false},
		{"auto", autoDefaultsURL, autoDefaultsPeriod, true},
		{"https://example.com/d.properties", "https://example.com/d.properties", 0, true},
		{"https://example.com/d.properties,1h", "https://example.com/d.properties", time.Hour, true},
		{"https://example.com/d.properties,1m30s", "https://example.com/d.properties", 90 * time.Second, true},
		// Malformed configs disable downloading rather than failing.
		{"ftp://example.com/d", "", 0, false},
		{"https://example.com/d,never", "", 0, false},
		{"https://example.com/d,-1h", "", 0, false},
		{",", "", 0, false},
	}
	for _, tt := range tests {
		url, period, active := parseDownloadConfig(tt.config)
		if url != tt.url || period != tt.period || active != tt.active {
			t.Errorf("parseDownloadConfig(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.config, url, period, active, tt.url, tt.period, tt.active)
		}
	}
}

func TestPeriodicDownloadAndStop(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		w.Write([]byte(testDocument))
	}))
	defer srv.Close()

	m := newDefaultsManager()
	m.downloadDefaults(srv.URL + ",20ms")

	deadline := time.Now().Add(2 * time.Second)
	for fetches.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fetches.Load() < 3 {
		t.Fatalf("periodic download only fetched %d times", fetches.Load())
	}
	if _, ok := m.currentDoc().lookup("STOCK.AAA"); !ok {
		t.Error("downloaded document not applied")
	}

	// The empty config stops the schedule: no fetches after it settles.
	m.downloadDefaults("")
	time.Sleep(50 * time.Millisecond)
	settled := fetches.Load()
	time.Sleep(100 * time.Millisecond)
	if fetches.Load() != settled {
		t.Errorf("fetches continued after stop: %d -> %d", settled, fetches.Load())
	}
}

func TestOneShotDownload(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		w.Write([]byte(testDocument))
	}))
	defer srv.Close()

	m := newDefaultsManager()
	m.downloadDefaults(srv.URL)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := m.currentDoc().lookup("STOCK.AAA"); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, ok := m.currentDoc().lookup("STOCK.AAA"); !ok {
		t.Fatal("one-shot download never applied")
	}
	time.Sleep(100 * time.Millisecond)
	if n := fetches.Load(); n != 1 {
		t.Errorf("one-shot download fetched %d times", n)
	}
}

func TestStaleFetchNotApplied(t *testing.T) {
	m := newDefaultsManager()
	m.mu.Lock()
	m.gen = 7
	m.mu.Unlock()

	// A result carrying an older generation must be discarded even though
	// the document itself is valid.
	if m.apply(6, []byte(testDocument)) {
		t.Fatal("stale fetch result was applied")
	}
	if m.currentDoc() != builtinDocument {
		t.Error("stale fetch result replaced the cache")
	}
	if !m.apply(7, []byte(testDocument)) {
		t.Error("current-generation fetch result was rejected")
	}
}

func TestFailedFetchLeavesCacheIntact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := newDefaultsManager()
	if !m.setDefaults([]byte(testDocument)) {
		t.Fatal("setDefaults failed")
	}
	m.downloadDefaults(srv.URL)
	time.Sleep(100 * time.Millisecond)
	if _, ok := m.currentDoc().lookup("STOCK.AAA"); !ok {
		t.Error("failed fetch corrupted the existing cache")
	}
}

type memoryDefaultsStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *memoryDefaultsStore) SaveDefaults(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = bytes.Clone(data)
	return nil
}

func (s *memoryDefaultsStore) LoadDefaults(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, nil
}

func TestAttachStoreSeedsAndPersists(t *testing.T) {
	st := &memoryDefaultsStore{data: []byte(testDocument)}
	m := newDefaultsManager()
	if err := m.attachStore(context.Background(), st); err != nil {
		t.Fatalf("attachStore: %v", err)
	}
	if _, ok := m.currentDoc().lookup("STOCK.AAA"); !ok {
		t.Error("manager not seeded from persisted document")
	}

	// Subsequent swaps reach the store.
	more := testDocument + "EXTRA=tz=UTC;reg=09:00-10:00;range=2024-01-01..2024-02-01\n"
	if !m.setDefaults([]byte(more)) {
		t.Fatal("setDefaults failed")
	}
	st.mu.Lock()
	persisted := string(st.data)
	st.mu.Unlock()
	if persisted != more {
		t.Error("accepted document was not persisted")
	}
}

func TestConcurrentReadersWithWriter(t *testing.T) {
	m := newDefaultsManager()
	if !m.setDefaults([]byte(testDocument)) {
		t.Fatal("setDefaults failed")
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				doc := m.currentDoc()
				if _, ok := doc.lookup("NYSE"); !ok {
					t.Error("reader observed a document without NYSE")
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if !m.setDefaults([]byte(testDocument)) {
			t.Error("writer swap failed")
			break
		}
	}
	close(stop)
	wg.Wait()
}
