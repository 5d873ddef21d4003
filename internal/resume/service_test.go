package resume

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_careerlift/internal/engine/jobs"
	"github.com/anatolykoptev/go_careerlift/internal/graph"
)

const adaFacts = `{"person": {"name": "Ada Lovelace", "email": "ada@example.com"},
	"skills": ["Go", "SQL"],
	"experiences": [{"title": "Engineer", "company": "Analytical", "duration": "2y", "description": "Built services"}],
	"education": [{"degree": "BSc", "institution": "London", "year": 1835}]}`

var adaFile = []byte("Ada Lovelace\nEngineer with Go and SQL experience.")

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService(t *testing.T, gen Generator) (*Service, *graph.SQLiteStore) {
	t.Helper()
	store, err := graph.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	svc := NewService(store, gen)
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc.now = c.now
	return svc, store
}

func TestUpload_ReplacesExperienceAccumulatesSkills(t *testing.T) {
	gen := &fakeGen{out: adaFacts}
	svc, store := newTestService(t, gen)
	ctx := context.Background()

	first, err := svc.Upload(ctx, Upload{Filename: "ada.txt", Data: adaFile})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", first.PersonName)
	assert.Equal(t, DefaultResumeName, first.ResumeName)
	assert.Equal(t, 5, first.NodesCreated)
	assert.Equal(t, len([]rune(string(adaFile))), first.TextLength)
	assert.NotEmpty(t, first.ResumeID)

	second, err := svc.Upload(ctx, Upload{Filename: "ada.txt", Data: adaFile})
	require.NoError(t, err)
	assert.Equal(t, 2, second.NodesCreated)
	assert.NotEqual(t, first.ResumeID, second.ResumeID)

	g, err := svc.Graph(ctx, "Ada Lovelace")
	require.NoError(t, err)
	assert.Len(t, g.Experiences, 1)
	assert.Len(t, g.Education, 1)
	assert.Len(t, g.Skills, 2)
	assert.Equal(t, "ada@example.com", g.Person.String("email"))

	gen.out = `{"person": {"name": "Ada Lovelace"}, "skills": ["Go", "Kubernetes"],
		"experiences": [{"title": "Staff Engineer"}, {"title": "Engineer"}], "education": []}`
	_, err = svc.Upload(ctx, Upload{Filename: "ada.md", Data: adaFile})
	require.NoError(t, err)

	g, err = svc.Graph(ctx, "Ada Lovelace")
	require.NoError(t, err)
	var skills []string
	for _, s := range g.Skills {
		skills = append(skills, s.String("name"))
	}
	assert.ElementsMatch(t, []string{"Go", "SQL", "Kubernetes"}, skills)
	assert.Len(t, g.Experiences, 2)
	assert.Empty(t, g.Education)
	assert.Equal(t, "ada@example.com", g.Person.String("email"), "missing email must not erase the stored one")

	// HAS_SKILL keeps its first created_at.
	err = store.InTx(ctx, func(tx graph.Tx) error {
		p, err := tx.FindByKey(ctx, graph.LabelPerson, "Ada Lovelace")
		require.NoError(t, err)
		links, err := tx.Out(ctx, p.ID, graph.RelHasSkill)
		require.NoError(t, err)
		require.Len(t, links, 3)
		assert.Equal(t, "2026-03-01T09:01:00.000000Z", links[0].Props.String("created_at"))
		return nil
	})
	require.NoError(t, err)
}

func TestUpload_PersonOverride(t *testing.T) {
	svc, _ := newTestService(t, &fakeGen{out: adaFacts})
	ctx := context.Background()

	res, err := svc.Upload(ctx, Upload{Filename: "cv.txt", Data: adaFile, PersonName: "Countess", ResumeName: "Backend"})
	require.NoError(t, err)
	assert.Equal(t, "Countess", res.PersonName)
	assert.Equal(t, "Backend", res.ResumeName)

	_, err = svc.Graph(ctx, "Countess")
	require.NoError(t, err)
	_, err = svc.Graph(ctx, "Ada Lovelace")
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestUpload_UnparseableOutputStillStores(t *testing.T) {
	svc, _ := newTestService(t, &fakeGen{out: "sorry, I can't help with that"})
	ctx := context.Background()

	res, err := svc.Upload(ctx, Upload{Filename: "cv.txt", Data: adaFile})
	require.NoError(t, err)
	assert.Equal(t, UnknownPerson, res.PersonName)
	assert.Equal(t, 1, res.NodesCreated)

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpload_RejectedBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name string
		up   Upload
		want error
	}{
		{"too short", Upload{Filename: "cv.txt", Data: []byte("hi there")}, ErrEmptyExtraction},
		{"unsupported", Upload{Filename: "cv.png", Data: adaFile}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGen{out: adaFacts}
			svc, _ := newTestService(t, gen)
			ctx := context.Background()

			_, err := svc.Upload(ctx, tt.up)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, gen.calls)
			list, err := svc.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestUpload_AuthRequiredPropagates(t *testing.T) {
	svc, _ := newTestService(t, &fakeGen{err: &AuthRequiredError{SigninURL: "https://ollama.com/connect"}})
	ctx := context.Background()

	_, err := svc.Upload(ctx, Upload{Filename: "cv.txt", Data: adaFile})
	require.ErrorIs(t, err, ErrAuthRequired)
	var authErr *AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "https://ollama.com/connect", authErr.SigninURL)

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_NewestFirstAndFiltered(t *testing.T) {
	gen := &fakeGen{out: adaFacts}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	a, err := svc.Upload(ctx, Upload{Filename: "a.txt", Data: adaFile, ResumeName: "first"})
	require.NoError(t, err)
	b, err := svc.Upload(ctx, Upload{Filename: "b.txt", Data: adaFile, ResumeName: "second"})
	require.NoError(t, err)
	_, err = svc.Upload(ctx, Upload{Filename: "c.txt", Data: adaFile, PersonName: "Grace"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "Ada Lovelace")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ResumeID, list[0].ResumeID)
	assert.Equal(t, a.ResumeID, list[1].ResumeID)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Grace", all[0].PersonName)
}

func seedJobs(t *testing.T, store graph.Store) {
	t.Helper()
	repo := jobs.NewRepository(store)
	for _, p := range []jobs.Posting{
		{Title: jobs.Str("Backend Engineer"), Description: jobs.Str("SQL services"), ApplyURL: "https://jobs.example/backend", Source: jobs.SourceRemotive},
		{Title: jobs.Str("Chef"), Description: jobs.Str("cooking pasta"), ApplyURL: "https://jobs.example/chef", Source: jobs.SourceManual},
	} {
		_, err := repo.Upsert(context.Background(), p)
		require.NoError(t, err)
	}
}

func TestScore(t *testing.T) {
	svc, store := newTestService(t, &fakeGen{out: adaFacts})
	ctx := context.Background()
	_, err := svc.Upload(ctx, Upload{Filename: "cv.txt", Data: adaFile})
	require.NoError(t, err)
	seedJobs(t, store)

	scored, err := svc.Score(ctx, "Ada Lovelace")
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "https://jobs.example/backend", scored[0].ApplyURL)
	assert.Equal(t, 50.0, *scored[0].ATSScore)
	assert.Less(t, *scored[1].ATSScore, *scored[0].ATSScore)

	_, err = svc.Score(ctx, "Nobody")
	assert.ErrorIs(t, err, ErrPersonNotFound)
}

func TestCandidate(t *testing.T) {
	svc, _ := newTestService(t, &fakeGen{out: adaFacts})
	ctx := context.Background()
	res, err := svc.Upload(ctx, Upload{Filename: "cv.txt", Data: adaFile})
	require.NoError(t, err)

	c, ok, err := svc.Candidate(ctx, res.ResumeID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 100.0, c.Score(jobs.Posting{Title: jobs.Str("SQL services")}))

	_, _, err = svc.Candidate(ctx, "missing")
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestRank(t *testing.T) {
	svc, _ := newTestService(t, &fakeGen{out: adaFacts})
	ctx := context.Background()
	res, err := svc.Upload(ctx, Upload{Filename: "cv.txt", Data: adaFile})
	require.NoError(t, err)

	list := func() []jobs.StoredJob {
		return []jobs.StoredJob{
			{Posting: jobs.Posting{Title: jobs.Str("Pastry chef"), ApplyURL: "https://x/chef"}},
			{Posting: jobs.Posting{Title: jobs.Str("SQL services"), ApplyURL: "https://x/sql"}},
		}
	}

	ranked := list()
	require.NoError(t, svc.Rank(ctx, res.ResumeID, ranked))
	assert.Equal(t, "https://x/sql", ranked[0].ApplyURL)
	require.NotNil(t, ranked[0].ATSScore)
	assert.Equal(t, 100.0, *ranked[0].ATSScore)

	unranked := list()
	require.NoError(t, svc.Rank(ctx, "missing", unranked))
	assert.Equal(t, "https://x/chef", unranked[0].ApplyURL)
	assert.Nil(t, unranked[0].ATSScore)
}

func TestSavedJobs(t *testing.T) {
	svc, store := newTestService(t, &fakeGen{out: adaFacts})
	ctx := context.Background()
	res, err := svc.Upload(ctx, Upload{Filename: "cv.txt", Data: adaFile, ResumeName: "Backend"})
	require.NoError(t, err)
	seedJobs(t, store)

	require.NoError(t, svc.SaveJob(ctx, res.ResumeID, "https://jobs.example/backend", "apply Monday"))
	require.NoError(t, svc.SaveJob(ctx, res.ResumeID, "https://jobs.example/chef", ""))

	saved, err := svc.SavedJobs(ctx, res.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, "Backend", saved.ResumeName)
	require.Len(t, saved.Jobs, 2)
	assert.Equal(t, "https://jobs.example/chef", saved.Jobs[0].ApplyURL)
	assert.Equal(t, "Backend Engineer", saved.Jobs[1].Title)
	assert.Equal(t, "apply Monday", saved.Jobs[1].Notes)
	assert.Equal(t, 50.0, saved.Jobs[1].ATSScore)

	// Saving again refreshes saved_at, moving the job to the top.
	require.NoError(t, svc.SaveJob(ctx, res.ResumeID, "https://jobs.example/backend", "interview booked"))
	saved, err = svc.SavedJobs(ctx, res.ResumeID)
	require.NoError(t, err)
	require.Len(t, saved.Jobs, 2)
	assert.Equal(t, "interview booked", saved.Jobs[0].Notes)

	assert.ErrorIs(t, svc.SaveJob(ctx, res.ResumeID, "https://jobs.example/none", ""), ErrJobNotFound)
	assert.ErrorIs(t, svc.SaveJob(ctx, "missing", "https://jobs.example/chef", ""), ErrResumeNotFound)
	_, err = svc.SavedJobs(ctx, "missing")
	assert.ErrorIs(t, err, ErrResumeNotFound)

	require.NoError(t, svc.RemoveSavedJob(ctx, res.ResumeID, "https://jobs.example/chef"))
	assert.ErrorIs(t, svc.RemoveSavedJob(ctx, res.ResumeID, "https://jobs.example/chef"), ErrSavedJobNotFound)
	assert.ErrorIs(t, svc.RemoveSavedJob(ctx, "missing", "https://jobs.example/chef"), ErrSavedJobNotFound)

	saved, err = svc.SavedJobs(ctx, res.ResumeID)
	require.NoError(t, err)
	assert.Len(t, saved.Jobs, 1)
}
