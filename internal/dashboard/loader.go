package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vaxmap/internal/datasource"
	"vaxmap/internal/geo"
	"vaxmap/internal/logger"
)

// LoadObserver is told about every load attempt.
type LoadObserver interface {
	LoadSucceeded(ds *Dataset, took time.Duration)
	LoadFailed(source string, err error, took time.Duration)
}

// Loader fetches, decodes and publishes a dataset into a Store.
type Loader struct {
	src       datasource.Source
	store     *Store
	observers []LoadObserver
	now       func() time.Time

	// mu serializes loads so an older fetch never replaces a newer snapshot.
	mu sync.Mutex
}

// NewLoader wires a source to a store.
func NewLoader(src datasource.Source, store *Store, observers ...LoadObserver) *Loader {
	return &Loader{src: src, store: store, observers: observers, now: time.Now}
}

// Store returns the target store.
func (l *Loader) Store() *Store {
	return l.store
}

// Load performs one fetch and, on success, swaps the snapshot. There are no
// retries; a failure is recorded in the store and returned. Concurrent calls
// run one after another.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	if l == nil || l.src == nil || l.store == nil {
		return nil, fmt.Errorf("loader not initialized")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	start := l.now()
	l.store.BeginLoad()

	ds, err := l.fetch(ctx, start)
	took := l.now().Sub(start)
	if err != nil {
		logger.Errorf("Error loading COVID data: %v", err)
		l.store.Fail(err)
		for _, o := range l.observers {
			o.LoadFailed(l.src.Location(), err, took)
		}
		return nil, err
	}
	l.store.Swap(ds)
	logger.Infof("COVID data loaded: %d features from %s in %s", ds.Len(), ds.Source, took.Round(time.Millisecond))
	for _, o := range l.observers {
		o.LoadSucceeded(ds, took)
	}
	return ds, nil
}

func (l *Loader) fetch(ctx context.Context, at time.Time) (*Dataset, error) {
	raw, err := l.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	col, err := geo.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.src.Location(), err)
	}
	return NewDataset(col, l.src.Location(), at), nil
}
