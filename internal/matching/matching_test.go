package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/internal/textsim"
	"ngandee-matcher/pkg/models"
)

func init() {
	_ = logging.InitializeLogging(&config.Config{})
}

type brokenEmbedder struct{}

func (brokenEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("model unavailable")
}
func (brokenEmbedder) IsHealthy(context.Context) error { return errors.New("model unavailable") }
func (brokenEmbedder) Name() string                    { return "broken" }
func (brokenEmbedder) Close() error                    { return nil }

func matchingConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Matching.TopK = 5
	cfg.Embeddings.Enabled = true
	cfg.Embeddings.FailureThreshold = 3
	cfg.Embeddings.CooldownPeriod = time.Minute
	return cfg
}

func lexicalComparer() *textsim.Manager {
	return textsim.NewManager(matchingConfig(), nil)
}

func driverJob() *models.JobPosting {
	return &models.JobPosting{
		ID:        "job-1",
		Category:  "driver",
		WorkDate:  "2025-05-01",
		StartTime: "08:00",
		EndTime:   "16:00",
		Province:  "Bangkok",
		Salary:    500,
		PosterID:  "employer-1",
	}
}

func driverWorker(id string) *models.WorkerListing {
	return &models.WorkerListing{
		ID:        id,
		Category:  "driver",
		WorkDate:  "2025-05-01",
		StartTime: "08:00",
		EndTime:   "16:00",
		Province:  "Bangkok",
		SalaryMin: 400,
		SalaryMax: 600,
		SeekerID:  "seeker-" + id,
	}
}

func TestWeightPresetsSumToOne(t *testing.T) {
	for name, w := range map[string]Weights{"basic": BasicWeights, "embedding": EmbeddingWeights} {
		sum := w.Category + w.Location + w.Time + w.Date + w.Description + w.Salary
		assert.InDelta(t, 1.0, sum, 1e-9, name)
	}
}

func TestScorerPerfectMatch(t *testing.T) {
	// scenario: identical type, province, date and hours, salary in range,
	// both descriptions empty so the description weight maxes at 0 on both
	// sides consistently
	scorer := NewScorer(lexicalComparer())
	job := driverJob()
	worker := driverWorker("w-1")

	score, downgraded, err := scorer.Score(context.Background(), job, worker, false)
	require.NoError(t, err)
	assert.False(t, downgraded)
	assert.InDelta(t, 1.0-BasicWeights.Description, score, 1e-9)

	// with matching description text the score reaches 1.0
	job.Description = "drive delivery van"
	worker.Skills = "drive delivery van"
	score, _, err = scorer.Score(context.Background(), job, worker, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScorerAllFieldsMissing(t *testing.T) {
	scorer := NewScorer(lexicalComparer())
	score, _, err := scorer.Score(context.Background(), &models.JobPosting{}, &models.WorkerListing{}, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestScorerMissingCriterionSpendsWeight(t *testing.T) {
	scorer := NewScorer(lexicalComparer())
	job := driverJob()
	worker := driverWorker("w-1")
	worker.Province = "" // location criterion has missing input

	score, _, err := scorer.Score(context.Background(), job, worker, false)
	require.NoError(t, err)
	// location weight is spent at 0, not redistributed
	assert.InDelta(t, 1.0-BasicWeights.Description-BasicWeights.Location, score, 1e-9)
}

func TestScorerRangeInvariant(t *testing.T) {
	scorer := NewScorer(lexicalComparer())
	jobs := []*models.JobPosting{
		driverJob(),
		{},
		{Category: "cook", Province: "Chiang Mai", Salary: 100000},
	}
	workers := []*models.WorkerListing{
		driverWorker("w-1"),
		{},
		{Category: "driver", SalaryMin: 1, SalaryMax: 2},
	}
	for _, job := range jobs {
		for _, worker := range workers {
			score, _, err := scorer.Score(context.Background(), job, worker, false)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestRankerTopKAndPriorities(t *testing.T) {
	// pool of 8, expect exactly 5 entries with dense priorities 1..5
	ranker := NewRanker(NewScorer(lexicalComparer()))
	job := driverJob()

	pool := make([]*models.WorkerListing, 0, 8)
	for i := 0; i < 8; i++ {
		w := driverWorker(fmt.Sprintf("w-%d", i))
		// degrade candidates progressively so the ordering is deterministic
		if i >= 4 {
			w.Province = "Phuket"
		}
		if i >= 6 {
			w.Category = "cook"
		}
		pool = append(pool, w)
	}

	ranked, downgraded, err := ranker.Rank(context.Background(), job, pool, job.PosterID, 5, false)
	require.NoError(t, err)
	assert.False(t, downgraded)
	require.Len(t, ranked, 5)

	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Priority)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score, rc.Score)
		}
	}
}

func TestRankerTieBreakIsInputOrder(t *testing.T) {
	ranker := NewRanker(NewScorer(lexicalComparer()))
	job := driverJob()

	pool := []*models.WorkerListing{driverWorker("first"), driverWorker("second"), driverWorker("third")}
	ranked, _, err := ranker.Rank(context.Background(), job, pool, job.PosterID, 5, false)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].Worker.ID)
	assert.Equal(t, "second", ranked[1].Worker.ID)
	assert.Equal(t, "third", ranked[2].Worker.ID)
}

func TestRankerExcludesSelfOwned(t *testing.T) {
	ranker := NewRanker(NewScorer(lexicalComparer()))
	job := driverJob()

	self := driverWorker("self")
	self.SeekerID = job.PosterID
	other := driverWorker("other")

	ranked, _, err := ranker.Rank(context.Background(), job, []*models.WorkerListing{self, other}, job.PosterID, 5, false)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "other", ranked[0].Worker.ID)
}

func TestRankerEmptyPoolIsNotAnError(t *testing.T) {
	ranker := NewRanker(NewScorer(lexicalComparer()))
	job := driverJob()

	self := driverWorker("self")
	self.SeekerID = job.PosterID

	ranked, downgraded, err := ranker.Rank(context.Background(), job, []*models.WorkerListing{self}, job.PosterID, 5, false)
	require.NoError(t, err)
	assert.Empty(t, ranked)
	assert.False(t, downgraded)
}

func TestScorerSurvivesBrokenEmbedder(t *testing.T) {
	// embedding strategy forced to fail: the scorer still answers with a
	// finite lexical score and reports the downgrade
	cfg := matchingConfig()
	manager := textsim.NewManager(cfg, brokenEmbedder{})
	scorer := NewScorer(manager)

	job := driverJob()
	job.Description = "drive delivery van"
	worker := driverWorker("w-1")
	worker.Skills = "drive delivery van"

	score, downgraded, err := scorer.Score(context.Background(), job, worker, true)
	require.NoError(t, err)
	assert.True(t, downgraded)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
	// lexical fallback still sees identical description text
	assert.InDelta(t, 1.0, score, 1e-9)
}

func newTestService(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	svc := NewService(matchingConfig(), store, store, store, lexicalComparer())
	return svc, store
}

func TestServiceRankJobPersistsBatch(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.CreateJob(ctx, driverJob()))
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateWorker(ctx, driverWorker(fmt.Sprintf("w-%d", i))))
	}

	resp, err := svc.RankJob(ctx, "job-1", &models.RankRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, resp.NoCandidates)
	require.Len(t, resp.Matches, 3)

	persisted, err := store.ListMatchesForJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, persisted, 3)
	for i, m := range persisted {
		assert.Equal(t, i+1, m.Priority)
		assert.Equal(t, models.MatchStatusQueued, m.Status)
		assert.Equal(t, "driver", m.JobCategory)
	}

	// matched workers now carry the active flag
	w, err := store.GetWorker(ctx, "w-0")
	require.NoError(t, err)
	assert.True(t, w.HasActiveMatch)

	// and the job is flagged, so a second pass is rejected
	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, job.MatchesGenerated)

	_, err = svc.RankJob(ctx, "job-1", &models.RankRequest{})
	require.Error(t, err)
}

// flakyWorkerStore fails the Nth SetActiveMatch(true) call exactly once.
type flakyWorkerStore struct {
	storage.WorkerStore
	failOnCall int
	calls      int
}

func (s *flakyWorkerStore) SetActiveMatch(ctx context.Context, workerID string, active bool) error {
	if active {
		s.calls++
		if s.calls == s.failOnCall {
			return errors.New("transient write failure")
		}
	}
	return s.WorkerStore.SetActiveMatch(ctx, workerID, active)
}

// flakyJobStore fails the next UpdateJob call exactly once.
type flakyJobStore struct {
	storage.JobStore
	failNextUpdate bool
}

func (s *flakyJobStore) UpdateJob(ctx context.Context, job *models.JobPosting) error {
	if s.failNextUpdate {
		s.failNextUpdate = false
		return errors.New("transient write failure")
	}
	return s.JobStore.UpdateJob(ctx, job)
}

func TestServiceRankJobDiscardsBatchOnWorkerFlagFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	flaky := &flakyWorkerStore{WorkerStore: store, failOnCall: 2}
	svc := NewService(matchingConfig(), store, flaky, store, lexicalComparer())

	require.NoError(t, store.CreateJob(ctx, driverJob()))
	for i := 0; i < 8; i++ {
		require.NoError(t, store.CreateWorker(ctx, driverWorker(fmt.Sprintf("w-%d", i))))
	}

	_, err := svc.RankJob(ctx, "job-1", &models.RankRequest{})
	require.Error(t, err)

	// the failed batch leaves nothing behind
	persisted, err := store.ListMatchesForJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, persisted)

	all, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	for _, w := range all {
		assert.False(t, w.HasActiveMatch, w.ID)
	}

	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.False(t, job.MatchesGenerated)

	// redoing the whole batch yields exactly one contiguous priority set
	resp, err := svc.RankJob(ctx, "job-1", &models.RankRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 5)

	persisted, err = store.ListMatchesForJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, persisted, 5)
	seen := make(map[int]int)
	for _, m := range persisted {
		seen[m.Priority]++
	}
	for p := 1; p <= 5; p++ {
		assert.Equal(t, 1, seen[p], "priority %d", p)
	}
}

func TestServiceRankJobDiscardsBatchOnJobFlagFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	flaky := &flakyJobStore{JobStore: store, failNextUpdate: true}
	svc := NewService(matchingConfig(), flaky, store, store, lexicalComparer())

	require.NoError(t, store.CreateJob(ctx, driverJob()))
	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateWorker(ctx, driverWorker(fmt.Sprintf("w-%d", i))))
	}

	_, err := svc.RankJob(ctx, "job-1", &models.RankRequest{})
	require.Error(t, err)

	persisted, err := store.ListMatchesForJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, persisted)

	// worker flags set before the job update failed are rolled back too
	all, err := store.ListWorkers(ctx)
	require.NoError(t, err)
	for _, w := range all {
		assert.False(t, w.HasActiveMatch, w.ID)
	}

	resp, err := svc.RankJob(ctx, "job-1", &models.RankRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 3)
}

func TestServiceRankJobNoCandidates(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.CreateJob(ctx, driverJob()))

	// only candidate already holds an active match
	busy := driverWorker("busy")
	busy.HasActiveMatch = true
	require.NoError(t, store.CreateWorker(ctx, busy))

	resp, err := svc.RankJob(ctx, "job-1", nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.NoCandidates)
	assert.Empty(t, resp.Matches)

	// the outcome is still recorded on the job
	job, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, job.MatchesGenerated)
}

func TestServiceRankJobUnknownJob(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RankJob(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestServiceReportsLexicalStrategyWhenProviderDown(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	// manager with no embedder at all: embeddings requested but inactive
	svc := NewService(matchingConfig(), store, store, store, lexicalComparer())

	require.NoError(t, store.CreateJob(ctx, driverJob()))
	require.NoError(t, store.CreateWorker(ctx, driverWorker("w-1")))

	resp, err := svc.RankJob(ctx, "job-1", &models.RankRequest{})
	require.NoError(t, err)
	assert.Equal(t, textsim.StrategyLexical, resp.Strategy)
}
