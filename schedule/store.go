package schedule

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const metadataFile = "metadata.json"

// Store is the per-city disk cache: one metadata record plus one gob blob
// per entity type. Core entities (routes, stops) are mandatory for a valid
// cache; extended entities default to empty when their blob is absent, which
// lets readers survive forward-compatible schema growth.
//
// Every write goes through a temp file and an atomic rename, metadata last.
// There is no cross-file atomicity: a crash mid-sync leaves old metadata
// whose token mismatches the remote, forcing a re-download on the next sync.
// Single-writer-per-city discipline across processes is the caller's duty.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) cityDir(city string) string {
	return filepath.Join(s.root, city)
}

func (s *Store) entityPath(city, entity string) string {
	return filepath.Join(s.cityDir(city), entity+".gob")
}

// WriteBundle persists each entity independently, then the metadata.
func (s *Store) WriteBundle(city string, b *Bundle, meta Metadata) error {
	dir := s.cityDir(city)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := writeGob(s.entityPath(city, "agencies"), b.Agencies); err != nil {
		return err
	}
	if err := writeGob(s.entityPath(city, "routes"), b.Routes); err != nil {
		return err
	}
	if err := writeGob(s.entityPath(city, "stops"), b.Stops); err != nil {
		return err
	}
	if err := writeGob(s.entityPath(city, "trips"), b.Trips); err != nil {
		return err
	}
	if err := writeGob(s.entityPath(city, "shapes"), b.Shapes); err != nil {
		return err
	}
	if err := writeGob(s.entityPath(city, "calendars"), b.Calendars); err != nil {
		return err
	}
	if err := writeGob(s.entityPath(city, "calendar_dates"), b.CalendarDates); err != nil {
		return err
	}
	if err := writeGob(s.entityPath(city, "stop_times"), b.StopTimes); err != nil {
		return err
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return writeAtomic(filepath.Join(dir, metadataFile), data)
}

// ReadMetadata loads the stored metadata for a city. A city that was never
// synced yields *NotSyncedError.
func (s *Store) ReadMetadata(city string) (Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.cityDir(city), metadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return Metadata{}, &NotSyncedError{City: city}
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

// LoadBundle reads a city's cached entities. Metadata must exist; routes and
// stops must exist; the extended entities fall back to empty collections.
func (s *Store) LoadBundle(city string) (*Bundle, error) {
	if _, err := s.ReadMetadata(city); err != nil {
		return nil, err
	}
	b := &Bundle{}
	var err error
	if b.Routes, err = readGob[Route](s.entityPath(city, "routes"), true); err != nil {
		return nil, err
	}
	if b.Stops, err = readGob[Stop](s.entityPath(city, "stops"), true); err != nil {
		return nil, err
	}
	if b.Agencies, err = readGob[Agency](s.entityPath(city, "agencies"), false); err != nil {
		return nil, err
	}
	if b.Trips, err = readGob[Trip](s.entityPath(city, "trips"), false); err != nil {
		return nil, err
	}
	if b.Shapes, err = readGob[ShapePoint](s.entityPath(city, "shapes"), false); err != nil {
		return nil, err
	}
	if b.Calendars, err = readGob[Calendar](s.entityPath(city, "calendars"), false); err != nil {
		return nil, err
	}
	if b.CalendarDates, err = readGob[CalendarDate](s.entityPath(city, "calendar_dates"), false); err != nil {
		return nil, err
	}
	if b.StopTimes, err = readGob[StopTime](s.entityPath(city, "stop_times"), false); err != nil {
		return nil, err
	}
	return b, nil
}

func writeGob[T any](path string, records []T) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := gob.NewEncoder(tmp).Encode(records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

func readGob[T any](path string, required bool) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if required {
			return nil, fmt.Errorf("core entity blob missing: %s", path)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	var records []T
	if err := gob.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}
