package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vaxmap/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{"type":"FeatureCollection","features":[
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-120,47]},"properties":{"name":"King","fullyVaxPer10k":6512,"population":2269675,"region":"Puget Sound"}},
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-120,47]},"properties":{"fullyVaxPer10k":0,"name":"Adams"}},
 {"type":"Feature","geometry":{"type":"Point","coordinates":[-120,47]},"properties":{"name":"Ferry","fullyVaxPer10k":2500}}
]}`

type fakeSource struct {
	body []byte
	err  error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func (f *fakeSource) Location() string { return "memory://sample" }

type recorder struct {
	mu     sync.Mutex
	ok     int
	failed []error
}

func (r *recorder) LoadSucceeded(ds *Dataset, took time.Duration) {
	r.mu.Lock()
	r.ok++
	r.mu.Unlock()
}

func (r *recorder) LoadFailed(source string, err error, took time.Duration) {
	r.mu.Lock()
	r.failed = append(r.failed, err)
	r.mu.Unlock()
}

func loadSample(t *testing.T) *Dataset {
	t.Helper()
	store := NewStore("memory://sample")
	ds, err := NewLoader(&fakeSource{body: []byte(sample)}, store).Load(context.Background())
	require.NoError(t, err)
	return ds
}

func TestLoader_Success(t *testing.T) {
	store := NewStore("memory://sample")
	rec := &recorder{}
	ds, err := NewLoader(&fakeSource{body: []byte(sample)}, store, rec).Load(context.Background())
	require.NoError(t, err)

	assert.Same(t, ds, store.Current())
	assert.Equal(t, 3, ds.Len())
	require.True(t, ds.HasStats)
	assert.Equal(t, 3, ds.Stats.Total)
	assert.Equal(t, 2, ds.Stats.Counted)
	assert.Equal(t, 45.1, ds.Stats.Average)
	assert.Equal(t, []int{1, 1, 0, 0, 0, 1}, ds.Histogram.Values())
	assert.Equal(t, 1, rec.ok)

	st := store.Status()
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
	assert.Equal(t, 3, st.Features)
	assert.NotNil(t, st.LoadedAt)
}

func TestLoader_FailureKeepsPreviousSnapshot(t *testing.T) {
	store := NewStore("memory://sample")
	src := &fakeSource{body: []byte(sample)}
	rec := &recorder{}
	loader := NewLoader(src, store, rec)
	first, err := loader.Load(context.Background())
	require.NoError(t, err)

	src.err = errors.New("HTTP error! status: 500")
	_, err = loader.Load(context.Background())
	require.Error(t, err)
	assert.Same(t, first, store.Current())
	assert.Equal(t, "HTTP error! status: 500", store.Status().Error)
	require.Len(t, rec.failed, 1)

	src.err = nil
	_, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, store.Status().Error)
}

type slowSource struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (s *slowSource) Fetch(ctx context.Context) ([]byte, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		old := s.maxSeen.Load()
		if n <= old || s.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}
	s.calls.Add(1)
	time.Sleep(20 * time.Millisecond)
	return []byte(sample), nil
}

func (s *slowSource) Location() string { return "memory://slow" }

func TestLoader_SerializesConcurrentLoads(t *testing.T) {
	src := &slowSource{}
	loader := NewLoader(src, NewStore(src.Location()))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := loader.Load(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(4), src.calls.Load())
	assert.Equal(t, int32(1), src.maxSeen.Load())
}

func TestLoader_MalformedDocument(t *testing.T) {
	store := NewStore("memory://bad")
	_, err := NewLoader(&fakeSource{body: []byte(`{"features":"nope"}`)}, store).Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, store.Current())
	st := store.Status()
	assert.False(t, st.Loaded)
	assert.NotEmpty(t, st.Error)
}

func TestDataset_AllZeroHasNoStats(t *testing.T) {
	col, err := geo.Decode([]byte(`{"type":"FeatureCollection","features":[
	 {"type":"Feature","geometry":{"type":"Point","coordinates":[-120,47]},"properties":{"name":"A","fullyVaxPer10k":0}},
	 {"type":"Feature","geometry":{"type":"Point","coordinates":[-120,47]},"properties":{"name":"B"}}]}`))
	require.NoError(t, err)
	ds := NewDataset(col, "x", time.Now())
	assert.False(t, ds.HasStats)
	assert.Equal(t, 2, ds.Histogram.Total())
}

func TestState_SelectAndReset(t *testing.T) {
	ds := loadSample(t)
	home := View{Center: [2]float64{-120.5, 47.5}, Zoom: 6.5}
	s := Initial(home)
	assert.Nil(t, s.Selected)
	assert.False(t, s.ShowChart)
	assert.Equal(t, Placeholder, s.Panel.Placeholder)

	king, ok := ds.Feature(0)
	require.True(t, ok)
	s.View.Zoom = 9
	selected := s.Select(king)
	require.NotNil(t, selected.Selected)
	assert.Equal(t, 0, *selected.Selected)
	assert.True(t, selected.ShowChart)
	assert.Equal(t, 9.0, selected.View.Zoom)
	assert.Equal(t, "King County", selected.Panel.Title)
	assert.Equal(t, "65.1%", selected.Panel.Rate)
	assert.Empty(t, selected.Panel.Placeholder)
	assert.Equal(t, []Row{
		{Key: "population", Value: "22696.8"},
		{Key: "region", Value: "Puget Sound"},
	}, selected.Panel.Rows)

	// Select does not mutate the receiver
	assert.Nil(t, s.Selected)

	reset := selected.Reset()
	assert.Equal(t, Initial(home), reset)
	assert.Equal(t, home, reset.View)
	assert.False(t, reset.ShowChart)
}

func TestBuildPanel_Defaults(t *testing.T) {
	f := geo.NewFeature(4, map[string]any{"extra": true}, "extra")
	p := BuildPanel(f)
	assert.Equal(t, "Unknown County", p.Title)
	assert.Equal(t, "0.0%", p.Rate)
	assert.Equal(t, []Row{{Key: "extra", Value: "true"}}, p.Rows)
}

func TestBuildPanel_NullProperties(t *testing.T) {
	col, err := geo.Decode([]byte(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":null}]}`))
	require.NoError(t, err)
	p := BuildPanel(col.Features[0])
	assert.Equal(t, "Unknown County", p.Title)
	assert.Empty(t, p.Rows)
}

func TestBuildPanel_RoundsLikeFixedPoint(t *testing.T) {
	f := geo.NewFeature(0, map[string]any{"name": "Chelan", "fullyVaxPer10k": 5815.0, "doses": 115.0}, "name", "fullyVaxPer10k", "doses")
	p := BuildPanel(f)
	assert.Equal(t, "58.1%", p.Rate)
	assert.Equal(t, []Row{{Key: "doses", Value: "1.1"}}, p.Rows)

	f = geo.NewFeature(1, map[string]any{"fullyVaxPer10k": 5825.0})
	assert.Equal(t, "58.3%", BuildPanel(f).Rate)
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{1234.0, "12.3"},
		{5.0, "0.1"},
		{-250.0, "-2.5"},
		{"1234", "1234"},
		{nil, "null"},
		{false, "false"},
		{[]any{1.0, "a"}, `[1,"a"]`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatValue(tc.in), "%v", tc.in)
	}
}
