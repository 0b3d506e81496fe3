package schedule

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

// SyncStatus discriminates the outcome of a sync call.
type SyncStatus string

const (
	StatusUpdated  SyncStatus = "updated"
	StatusUpToDate SyncStatus = "up-to-date"
)

// SyncResult carries the outcome of a sync: status, freshness token, sync
// timestamp and per-entity counts.
type SyncResult struct {
	Status   SyncStatus     `json:"status"`
	Token    string         `json:"token,omitempty"`
	SyncedAt time.Time      `json:"syncedAt"`
	Counts   map[string]int `json:"counts"`
}

// Fetcher is the network collaborator the service needs: a freshness probe
// and a body download. *fetch.Client satisfies it.
type Fetcher interface {
	Probe(ctx context.Context, url string) (string, error)
	Download(ctx context.Context, url string, w io.Writer) error
}

// Service runs the sync protocol and serves cached snapshots. Operations on
// one city are serialized within this service; sharing a cache directory
// between processes still needs external coordination.
type Service struct {
	client      Fetcher
	store       *Store
	sources     map[string]string // city -> static bundle URL
	minInterval time.Duration

	mu     sync.Mutex
	cities map[string]*cityState
}

type cityState struct {
	mu          sync.Mutex
	lastAttempt time.Time
	lastResult  *SyncResult
	snapshot    *Snapshot
	generation  uint64
}

func NewService(client Fetcher, store *Store, sources map[string]string, minInterval time.Duration) *Service {
	return &Service{
		client:      client,
		store:       store,
		sources:     sources,
		minInterval: minInterval,
		cities:      map[string]*cityState{},
	}
}

func (s *Service) state(city string) *cityState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.cities[city]
	if !ok {
		st = &cityState{}
		s.cities[city] = st
	}
	return st
}

// Sync brings the city's cache up to date with the remote bundle.
//
// Unless forced, a call within the throttle interval returns the last known
// result without re-probing. Otherwise the remote freshness token is probed
// first; when it matches the stored one the call short-circuits to
// up-to-date with the stored counts and no download happens.
func (s *Service) Sync(ctx context.Context, city string, force bool) (SyncResult, error) {
	st := s.state(city)
	st.mu.Lock()
	defer st.mu.Unlock()

	url, ok := s.sources[city]
	if !ok || url == "" {
		return SyncResult{}, &SyncError{City: city, Err: errors.New("no static bundle configured")}
	}

	if !force && st.lastResult != nil && time.Since(st.lastAttempt) < s.minInterval {
		return *st.lastResult, nil
	}
	st.lastAttempt = time.Now()

	token, err := s.client.Probe(ctx, url)
	if err != nil {
		return SyncResult{}, &SyncError{City: city, Err: err}
	}

	meta, metaErr := s.store.ReadMetadata(city)
	if !force && metaErr == nil && token != "" && meta.Token == token {
		res := SyncResult{Status: StatusUpToDate, Token: meta.Token, SyncedAt: meta.SyncedAt, Counts: meta.Counts}
		st.lastResult = &res
		return res, nil
	}

	res, err := s.download(ctx, city, url, token)
	if err != nil {
		return SyncResult{}, err
	}
	st.lastResult = &res
	st.generation++
	st.snapshot = nil // rebuilt lazily on next access
	return res, nil
}

// download fetches the archive into a temp file, parses and persists it.
// The temp file is removed on every exit path.
func (s *Service) download(ctx context.Context, city, url, token string) (SyncResult, error) {
	tmp, err := os.CreateTemp("", "bundle-*.zip")
	if err != nil {
		return SyncResult{}, &SyncError{City: city, Err: err}
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := s.client.Download(ctx, url, tmp); err != nil {
		_ = tmp.Close()
		return SyncResult{}, &SyncError{City: city, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return SyncResult{}, &SyncError{City: city, Err: err}
	}

	bundle, err := ParseBundle(tmp.Name())
	if err != nil {
		return SyncResult{}, &SyncError{City: city, Err: err}
	}
	meta := Metadata{Token: token, SyncedAt: time.Now().UTC(), Counts: bundle.Counts()}
	if err := s.store.WriteBundle(city, bundle, meta); err != nil {
		return SyncResult{}, &SyncError{City: city, Err: err}
	}
	return SyncResult{Status: StatusUpdated, Token: token, SyncedAt: meta.SyncedAt, Counts: meta.Counts}, nil
}

// Snapshot returns the city's cached snapshot, loading it from disk on first
// use. It never triggers a sync; a city with no synced data yields
// *NotSyncedError.
func (s *Service) Snapshot(city string) (*Snapshot, error) {
	st := s.state(city)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.snapshot != nil {
		return st.snapshot, nil
	}
	bundle, err := s.store.LoadBundle(city)
	if err != nil {
		return nil, err
	}
	if st.generation == 0 {
		st.generation = 1
	}
	st.snapshot = NewSnapshot(bundle, st.generation)
	return st.snapshot, nil
}

// Metadata exposes the stored cache metadata for a city.
func (s *Service) Metadata(city string) (Metadata, error) {
	return s.store.ReadMetadata(city)
}
