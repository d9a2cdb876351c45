package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngandee-matcher/pkg/models"
)

func TestMemoryStoreJobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	job := &models.JobPosting{ID: "job-1", Category: "driver", CreatedAt: time.Now()}
	require.NoError(t, store.CreateJob(ctx, job))

	got, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "driver", got.Category)

	// mutation of the returned copy must not leak into the store
	got.Category = "cook"
	again, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "driver", again.Category)

	_, err = store.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	job.MatchesGenerated = true
	require.NoError(t, store.UpdateJob(ctx, job))
	updated, err := store.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.True(t, updated.MatchesGenerated)
}

func TestMemoryStoreWorkers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.CreateWorker(ctx, &models.WorkerListing{ID: "w-1", Category: "driver"}))

	require.NoError(t, store.SetActiveMatch(ctx, "w-1", true))
	worker, err := store.GetWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.True(t, worker.HasActiveMatch)

	assert.ErrorIs(t, store.SetActiveMatch(ctx, "missing", true), ErrWorkerNotFound)
}

func TestMemoryStoreMatches(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	batch := []*models.Match{
		{ID: "m-1", JobID: "job-1", WorkerID: "w-1", Priority: 2, Status: models.MatchStatusQueued},
		{ID: "m-2", JobID: "job-1", WorkerID: "w-2", Priority: 1, Status: models.MatchStatusQueued},
		{ID: "m-3", JobID: "job-2", WorkerID: "w-1", Priority: 1, Status: models.MatchStatusQueued},
	}
	require.NoError(t, store.CreateMatches(ctx, batch))

	forJob, err := store.ListMatchesForJob(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, forJob, 2)
	assert.Equal(t, "m-2", forJob[0].ID) // ordered by priority
	assert.Equal(t, "m-1", forJob[1].ID)

	forWorker, err := store.ListMatchesForWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.Len(t, forWorker, 2)

	require.NoError(t, store.UpdateMatchStatus(ctx, "m-1", models.MatchStatusAccepted))
	m, err := store.GetMatch(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, m.Status)
	assert.False(t, m.UpdatedAt.IsZero())

	require.NoError(t, store.UpdateMatchPriority(ctx, "m-2", 5))
	m, err = store.GetMatch(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, 5, m.Priority)

	assert.ErrorIs(t, store.UpdateMatchStatus(ctx, "missing", models.MatchStatusDeclined), ErrMatchNotFound)
	assert.ErrorIs(t, store.UpdateMatchPriority(ctx, "missing", 1), ErrMatchNotFound)

	// discarding one job's batch leaves other jobs' matches alone
	require.NoError(t, store.DeleteMatchesForJob(ctx, "job-1"))
	forJob, err = store.ListMatchesForJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Empty(t, forJob)
	forOther, err := store.ListMatchesForJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Len(t, forOther, 1)
}

func TestMemoryStoreReviews(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	review := &models.Review{ID: "r-1", MatchID: "m-1", Direction: models.ReviewWorkerToEmployer, Rating: 5}
	require.NoError(t, store.CreateReview(ctx, review))

	// second review in the same direction is rejected
	dup := &models.Review{ID: "r-2", MatchID: "m-1", Direction: models.ReviewWorkerToEmployer, Rating: 1}
	assert.ErrorIs(t, store.CreateReview(ctx, dup), ErrReviewExists)

	// opposite direction is fine
	other := &models.Review{ID: "r-3", MatchID: "m-1", Direction: models.ReviewEmployerToWorker, Rating: 4}
	require.NoError(t, store.CreateReview(ctx, other))

	reviews, err := store.ListReviewsForMatch(ctx, "m-1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}
