package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/graph"
)

type fakeAdapter struct {
	name       jobs.Source
	configured bool
	postings   []jobs.Posting
	err        error
	block      bool
	panics     bool
	calls      int
	lastLimit  int
}

func (f *fakeAdapter) Name() jobs.Source { return f.name }
func (f *fakeAdapter) Configured() bool  { return f.configured }

func (f *fakeAdapter) Fetch(ctx context.Context, flt jobs.Filters) ([]jobs.Posting, error) {
	f.calls++
	f.lastLimit = flt.Limit
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.postings, f.err
}

type fakeDiscoverer struct {
	links map[string][]string
	calls int
}

func (f *fakeDiscoverer) Discover(_ context.Context, root string, _ int) ([]string, error) {
	f.calls++
	links, ok := f.links[root]
	if !ok {
		return nil, errors.New("unreachable")
	}
	return links, nil
}

type fakeExtractor struct {
	visited []string
}

func (f *fakeExtractor) Extract(_ context.Context, pageURL string) ([]jobs.Posting, error) {
	f.visited = append(f.visited, pageURL)
	return []jobs.Posting{{Title: jobs.Str("Job at " + pageURL), ApplyURL: pageURL, Source: jobs.SourceScraped}}, nil
}

func newTestRepo(t *testing.T) *jobs.Repository {
	t.Helper()
	s, err := graph.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return jobs.NewRepository(s)
}

func posting(url string) jobs.Posting {
	return jobs.Posting{Title: jobs.Str("Engineer"), ApplyURL: url}
}

func TestIngestSource_CreatedThenUpdated(t *testing.T) {
	repo := newTestRepo(t)
	a := &fakeAdapter{name: jobs.SourceRemotive, configured: true,
		postings: []jobs.Posting{posting("https://x/1"), posting("https://x/2"), {Title: jobs.Str("no url")}}}
	o := New(repo, Options{Adapters: []jobs.Adapter{a}})
	ctx := context.Background()

	res, err := o.IngestSource(ctx, jobs.SourceRemotive, jobs.Filters{})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 100, a.lastLimit)

	res, err = o.IngestSource(ctx, jobs.SourceRemotive, jobs.Filters{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Updated)
}

func TestIngestSource_LimitClamped(t *testing.T) {
	a := &fakeAdapter{name: jobs.SourceAdzuna, configured: true}
	o := New(newTestRepo(t), Options{Adapters: []jobs.Adapter{a}})

	res, err := o.IngestSource(context.Background(), jobs.SourceAdzuna, jobs.Filters{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Limit)
	assert.Equal(t, 50, a.lastLimit)
}

func TestIngestSource_Unknown(t *testing.T) {
	o := New(newTestRepo(t), Options{})
	_, err := o.IngestSource(context.Background(), "monster", jobs.Filters{})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestIngestSource_StatusKinds(t *testing.T) {
	tests := []struct {
		name    string
		adapter *fakeAdapter
		want    Status
	}{
		{"unconfigured", &fakeAdapter{name: jobs.SourceUSAJobs}, StatusUnconfigured},
		{"failed", &fakeAdapter{name: jobs.SourceUSAJobs, configured: true, err: errors.New("HTTP 502")}, StatusFailed},
		{"panic", &fakeAdapter{name: jobs.SourceUSAJobs, configured: true, panics: true}, StatusFailed},
		{"timeout", &fakeAdapter{name: jobs.SourceUSAJobs, configured: true, block: true}, StatusTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(newTestRepo(t), Options{
				Adapters:      []jobs.Adapter{tt.adapter},
				SourceTimeout: 50 * time.Millisecond,
			})
			res, err := o.IngestSource(context.Background(), jobs.SourceUSAJobs, jobs.Filters{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Zero(t, res.Created)
			if tt.want == StatusUnconfigured {
				assert.Zero(t, tt.adapter.calls)
			} else {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}

func TestIngestAll_FailureDoesNotBlockBatch(t *testing.T) {
	usajobs := &fakeAdapter{name: jobs.SourceUSAJobs}
	adzuna := &fakeAdapter{name: jobs.SourceAdzuna, configured: true, err: errors.New("connection reset")}
	remotive := &fakeAdapter{name: jobs.SourceRemotive, configured: true,
		postings: []jobs.Posting{posting("https://r/1"), posting("https://r/2")}}
	wwr := &fakeAdapter{name: jobs.SourceWWR, configured: true, postings: []jobs.Posting{posting("https://w/1")}}

	o := New(newTestRepo(t), Options{Adapters: []jobs.Adapter{usajobs, adzuna, remotive, wwr}})
	rep := o.IngestAll(context.Background(), 0)

	assert.Equal(t, DefaultLimitPerSource, rep.LimitPerSource)
	assert.Equal(t, 3, rep.TotalCreated)
	assert.Equal(t, map[string]int{"usajobs": 0, "adzuna": 0, "remotive": 2, "weworkremotely": 1}, rep.BySource)
	require.Len(t, rep.Results, 4)
	assert.Equal(t, StatusUnconfigured, rep.Results[0].Status)
	assert.Equal(t, StatusFailed, rep.Results[1].Status)
	assert.Equal(t, StatusOK, rep.Results[2].Status)
	assert.Empty(t, rep.Attribution)
}

func TestIngestAll_AdzunaAttribution(t *testing.T) {
	adzuna := &fakeAdapter{name: jobs.SourceAdzuna, configured: true, postings: []jobs.Posting{posting("https://a/1")}}
	o := New(newTestRepo(t), Options{Adapters: []jobs.Adapter{adzuna}})

	rep := o.IngestAll(context.Background(), 500)
	assert.Equal(t, MaxLimitPerSource, rep.LimitPerSource)
	assert.Equal(t, jobs.AdzunaAttribution, rep.Attribution)
}

func writeFixture(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestIngestSeeds_FixtureHaltsAtLimit(t *testing.T) {
	path := writeFixture(t, `{"jobs": [
		{"title": "A", "apply_url": "https://f/1"},
		{"title": "B", "apply_url": "https://f/2"},
		{"title": "no url"},
		{"title": "C", "apply_url": "https://f/3"},
		{"title": "D", "apply_url": "https://f/4"}
	]}`)
	disc := &fakeDiscoverer{}
	ext := &fakeExtractor{}
	o := New(newTestRepo(t), Options{FixturePath: path, Discoverer: disc, Extractor: ext})

	rep, err := o.IngestSeeds(context.Background(), []string{"https://seed.example"}, 3, false)
	require.NoError(t, err)
	assert.True(t, rep.Offline)
	assert.Equal(t, 3, rep.Created)
	assert.Equal(t, 1, rep.Skipped)
	assert.Zero(t, disc.calls)
	assert.Empty(t, ext.visited)
}

func TestIngestSeeds_MalformedFixtureOffline(t *testing.T) {
	path := writeFixture(t, `{"jobs": [`)
	disc := &fakeDiscoverer{}
	o := New(newTestRepo(t), Options{FixturePath: path, Discoverer: disc, Extractor: &fakeExtractor{}})

	rep, err := o.IngestSeeds(context.Background(), nil, 5, true)
	require.NoError(t, err)
	assert.Zero(t, rep.Created)
	assert.Zero(t, disc.calls)
}

func TestIngestSeeds_DedupAndEarlyExit(t *testing.T) {
	disc := &fakeDiscoverer{links: map[string][]string{
		"https://a.example": {"https://a.example/jobs/1", "https://shared.example/jobs/9"},
		"https://b.example": {"https://shared.example/jobs/9", "https://b.example/jobs/2", "https://b.example/jobs/3"},
	}}
	ext := &fakeExtractor{}
	o := New(newTestRepo(t), Options{Discoverer: disc, Extractor: ext})

	rep, err := o.IngestSeeds(context.Background(), []string{"https://a.example", "https://down.example", "https://b.example"}, 3, false)
	require.NoError(t, err)
	assert.False(t, rep.Offline)
	assert.Equal(t, 3, rep.Created)
	assert.Equal(t, []string{
		"https://a.example/jobs/1",
		"https://shared.example/jobs/9",
		"https://b.example/jobs/2",
	}, ext.visited)
	assert.Equal(t, 3, rep.PagesVisited)
}

func TestIngestSeeds_DefaultsFromOptions(t *testing.T) {
	disc := &fakeDiscoverer{links: map[string][]string{"https://seed.example": {"https://seed.example/jobs/1"}}}
	o := New(newTestRepo(t), Options{
		Discoverer: disc,
		Extractor:  &fakeExtractor{},
		Seeds:      []string{"https://seed.example"},
	})

	rep, err := o.IngestSeeds(context.Background(), nil, 0, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeedLimit, rep.Limit)
	assert.Equal(t, []string{"https://seed.example"}, rep.Seeds)
	assert.Equal(t, 1, rep.Created)
}

func TestIngestSeeds_NotConfigured(t *testing.T) {
	o := New(newTestRepo(t), Options{})
	_, err := o.IngestSeeds(context.Background(), []string{"https://x"}, 1, false)
	assert.Error(t, err)
}

func TestLoadFixture_Shapes(t *testing.T) {
	list, ok := LoadFixture(writeFixture(t, `[{"title": "A", "apply_url": "https://f/1", "source": "manual", "remote": true}, 42]`))
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, jobs.SourceManual, list[0].Source)
	require.NotNil(t, list[0].Remote)
	assert.True(t, *list[0].Remote)

	list, ok = LoadFixture(writeFixture(t, `{"jobs": [{"apply_url": "https://f/2", "posted_at": "not a date"}]}`))
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, jobs.SourceScraped, list[0].Source)
	assert.Nil(t, list[0].PostedAt)

	_, ok = LoadFixture(writeFixture(t, `{"other": 1}`))
	assert.False(t, ok)
	_, ok = LoadFixture(filepath.Join(t.TempDir(), "missing.json"))
	assert.False(t, ok)
}
