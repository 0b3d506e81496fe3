package schedule

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/urbanflow-transit/feedpipe/fetch"
)

// bundleServer serves a fixture archive with a stable Last-Modified token
// and counts body downloads.
func bundleServer(t *testing.T, token string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	path := writeFixtureBundle(t, fixtureTables())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var downloads atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", token)
		if r.Method == http.MethodHead {
			return
		}
		downloads.Add(1)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &downloads
}

func newTestService(t *testing.T, url string, minInterval time.Duration) *Service {
	t.Helper()
	client := fetch.NewClient(5 * time.Second)
	store := NewStore(t.TempDir())
	return NewService(client, store, map[string]string{"vilnius": url}, minInterval)
}

func TestServiceSyncThenUpToDate(t *testing.T) {
	srv, downloads := bundleServer(t, "Wed, 01 Oct 2025 06:00:00 GMT")
	svc := newTestService(t, srv.URL, 0)

	first, err := svc.Sync(context.Background(), "vilnius", false)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if first.Status != StatusUpdated {
		t.Errorf("expected updated, got %s", first.Status)
	}
	if first.Counts["routes"] != 2 {
		t.Errorf("unexpected counts: %v", first.Counts)
	}

	second, err := svc.Sync(context.Background(), "vilnius", false)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.Status != StatusUpToDate {
		t.Errorf("expected up-to-date, got %s", second.Status)
	}
	if second.Counts["routes"] != 2 {
		t.Errorf("expected stored counts on short-circuit, got %v", second.Counts)
	}
	if n := downloads.Load(); n != 1 {
		t.Errorf("expected exactly one download, got %d", n)
	}
}

func TestServiceSyncForceRedownloads(t *testing.T) {
	srv, downloads := bundleServer(t, "Wed, 01 Oct 2025 06:00:00 GMT")
	svc := newTestService(t, srv.URL, time.Hour)

	if _, err := svc.Sync(context.Background(), "vilnius", false); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	res, err := svc.Sync(context.Background(), "vilnius", true)
	if err != nil {
		t.Fatalf("forced sync: %v", err)
	}
	if res.Status != StatusUpdated {
		t.Errorf("expected force to bypass the token short-circuit, got %s", res.Status)
	}
	if n := downloads.Load(); n != 2 {
		t.Errorf("expected two downloads, got %d", n)
	}
}

func TestServiceSyncThrottled(t *testing.T) {
	srv, _ := bundleServer(t, "Wed, 01 Oct 2025 06:00:00 GMT")
	svc := newTestService(t, srv.URL, time.Hour)

	first, err := svc.Sync(context.Background(), "vilnius", false)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}

	srv.Close() // a throttled call must not touch the network at all
	second, err := svc.Sync(context.Background(), "vilnius", false)
	if err != nil {
		t.Fatalf("throttled sync: %v", err)
	}
	if second.Status != first.Status || second.Token != first.Token {
		t.Errorf("expected the cached result, got %+v", second)
	}
}

func TestServiceSyncTokenChangeRedownloads(t *testing.T) {
	path := writeFixtureBundle(t, fixtureTables())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	token := "Wed, 01 Oct 2025 06:00:00 GMT"
	var downloads atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", token)
		if r.Method == http.MethodHead {
			return
		}
		downloads.Add(1)
		_, _ = w.Write(data)
	}))
	defer srv.Close()
	svc := newTestService(t, srv.URL, 0)

	if _, err := svc.Sync(context.Background(), "vilnius", false); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	token = "Thu, 02 Oct 2025 06:00:00 GMT"
	res, err := svc.Sync(context.Background(), "vilnius", false)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if res.Status != StatusUpdated {
		t.Errorf("expected a changed token to trigger a download, got %s", res.Status)
	}
	if n := downloads.Load(); n != 2 {
		t.Errorf("expected two downloads, got %d", n)
	}
}

func TestServiceSyncFailureWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	svc := newTestService(t, srv.URL, 0)

	_, err := svc.Sync(context.Background(), "vilnius", false)
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError, got %v", err)
	}
	if syncErr.City != "vilnius" {
		t.Errorf("expected city in error, got %q", syncErr.City)
	}
	var netErr *fetch.NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("expected wrapped NetworkError cause, got %v", err)
	}
}

func TestServiceSyncUnconfiguredCity(t *testing.T) {
	svc := newTestService(t, "http://unused.test", 0)

	_, err := svc.Sync(context.Background(), "atlantis", false)
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected SyncError for unconfigured city, got %v", err)
	}
}

func TestServiceSnapshot(t *testing.T) {
	srv, _ := bundleServer(t, "Wed, 01 Oct 2025 06:00:00 GMT")
	svc := newTestService(t, srv.URL, 0)

	t.Run("never synced", func(t *testing.T) {
		_, err := svc.Snapshot("vilnius")
		var notSynced *NotSyncedError
		if !errors.As(err, &notSynced) {
			t.Fatalf("expected NotSyncedError, got %v", err)
		}
	})

	if _, err := svc.Sync(context.Background(), "vilnius", false); err != nil {
		t.Fatalf("sync: %v", err)
	}

	snap, err := svc.Snapshot("vilnius")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, ok := snap.Route("12"); !ok {
		t.Error("expected synced snapshot to resolve routes")
	}
	gen := snap.Generation

	again, err := svc.Snapshot("vilnius")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if again != snap {
		t.Error("expected the cached snapshot to be reused")
	}

	// A forced re-sync replaces the snapshot and bumps the generation.
	if _, err := svc.Sync(context.Background(), "vilnius", true); err != nil {
		t.Fatalf("forced sync: %v", err)
	}
	fresh, err := svc.Snapshot("vilnius")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if fresh.Generation <= gen {
		t.Errorf("expected generation bump, got %d after %d", fresh.Generation, gen)
	}
}
