// Package dashboard holds the loaded dataset and the explicit view state the
// page works from.
package dashboard

import (
	"sync"
	"sync/atomic"
	"time"

	"vaxmap/internal/choropleth"
	"vaxmap/internal/geo"
)

// Dataset is an immutable snapshot of one successful load.
type Dataset struct {
	Collection *geo.Collection
	Stats      choropleth.Stats
	HasStats   bool
	Histogram  choropleth.Histogram
	LoadedAt   time.Time
	Source     string
}

// NewDataset derives stats and histogram from a decoded collection.
func NewDataset(col *geo.Collection, source string, at time.Time) *Dataset {
	var features []geo.Feature
	if col != nil {
		features = col.Features
	}
	stats, ok := choropleth.ComputeStats(features)
	return &Dataset{
		Collection: col,
		Stats:      stats,
		HasStats:   ok,
		Histogram:  choropleth.BuildHistogram(features),
		LoadedAt:   at,
		Source:     source,
	}
}

// Feature returns the feature at index.
func (d *Dataset) Feature(index int) (geo.Feature, bool) {
	if d == nil {
		return geo.Feature{}, false
	}
	return d.Collection.At(index)
}

// Len returns the number of features in the snapshot.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.Collection.Len()
}

// Status describes the most recent load attempt.
type Status struct {
	Loading  bool       `json:"loading"`
	Loaded   bool       `json:"loaded"`
	Error    string     `json:"error,omitempty"`
	Features int        `json:"features"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	Source   string     `json:"source"`
}

// Store keeps the current dataset for concurrent readers. A failed reload
// records the error but keeps serving the previous snapshot.
type Store struct {
	current atomic.Pointer[Dataset]

	mu      sync.RWMutex
	loading bool
	lastErr error
	source  string
}

// NewStore returns an empty store for source.
func NewStore(source string) *Store {
	return &Store{source: source}
}

// Current returns the active snapshot, nil before the first successful load.
func (s *Store) Current() *Dataset {
	return s.current.Load()
}

// Swap installs ds as the active snapshot and clears the last error.
func (s *Store) Swap(ds *Dataset) {
	s.current.Store(ds)
	s.mu.Lock()
	s.loading = false
	s.lastErr = nil
	if ds != nil && ds.Source != "" {
		s.source = ds.Source
	}
	s.mu.Unlock()
}

// BeginLoad marks a load as in flight.
func (s *Store) BeginLoad() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
}

// Fail records a load error.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

// Err returns the error of the last load attempt, if it failed.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Status reports the load state.
func (s *Store) Status() Status {
	s.mu.RLock()
	st := Status{Loading: s.loading, Source: s.source}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	s.mu.RUnlock()
	if ds := s.Current(); ds != nil {
		st.Loaded = true
		st.Features = ds.Len()
		at := ds.LoadedAt
		st.LoadedAt = &at
	}
	return st
}
