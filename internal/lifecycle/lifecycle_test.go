package lifecycle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/pkg/models"
)

func init() {
	_ = logging.InitializeLogging(&config.Config{})
}

func TestIsTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to models.MatchStatus
		want     bool
	}{
		{models.MatchStatusQueued, models.MatchStatusAccepted, true},
		{models.MatchStatusQueued, models.MatchStatusDeclined, true},
		{models.MatchStatusAccepted, models.MatchStatusCompleted, true},
		{models.MatchStatusQueued, models.MatchStatusCompleted, false},
		{models.MatchStatusAccepted, models.MatchStatusDeclined, false},
		{models.MatchStatusDeclined, models.MatchStatusQueued, false},
		{models.MatchStatusDeclined, models.MatchStatusAccepted, false},
		{models.MatchStatusCompleted, models.MatchStatusQueued, false},
		{models.MatchStatusQueued, models.MatchStatusQueued, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsTransitionAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(models.MatchStatusQueued))
	assert.False(t, IsTerminal(models.MatchStatusAccepted))
	assert.True(t, IsTerminal(models.MatchStatusDeclined))
	assert.True(t, IsTerminal(models.MatchStatusCompleted))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("accepted")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, st)

	_, err = ParseStatus("ACCEPTED")
	assert.Error(t, err)
	_, err = ParseStatus("bogus")
	assert.Error(t, err)
}

func seedBatch(t *testing.T, store *storage.MemoryStore, jobID string, n int) []*models.Match {
	t.Helper()
	ctx := context.Background()
	batch := make([]*models.Match, n)
	for i := 0; i < n; i++ {
		workerID := fmt.Sprintf("%s-w-%d", jobID, i+1)
		batch[i] = &models.Match{
			ID:        fmt.Sprintf("%s-m-%d", jobID, i+1),
			JobID:     jobID,
			WorkerID:  workerID,
			Priority:  i + 1,
			Status:    models.MatchStatusQueued,
			CreatedAt: time.Now(),
		}
		require.NoError(t, store.CreateWorker(ctx, &models.WorkerListing{ID: workerID, HasActiveMatch: true}))
	}
	require.NoError(t, store.CreateMatches(ctx, batch))
	return batch
}

func newTestService(t *testing.T) (*Service, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewService(store, store, store), store
}

func TestAcceptAutoDeclinesSiblings(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	// one worker queued on two different jobs
	worker := &models.WorkerListing{ID: "w-1", HasActiveMatch: true}
	require.NoError(t, store.CreateWorker(ctx, worker))
	require.NoError(t, store.CreateMatches(ctx, []*models.Match{
		{ID: "m-1", JobID: "job-1", WorkerID: "w-1", Priority: 1, Status: models.MatchStatusQueued},
		{ID: "m-2", JobID: "job-2", WorkerID: "w-1", Priority: 1, Status: models.MatchStatusQueued},
	}))

	accepted, err := svc.Accept(ctx, "m-1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, accepted.Status)

	sibling, err := store.GetMatch(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusDeclined, sibling.Status)

	w, err := store.GetWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.True(t, w.HasActiveMatch)
}

func TestDeclineFreesWorker(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 1)

	declined, err := svc.Decline(ctx, "job-1-m-1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusDeclined, declined.Status)

	w, err := store.GetWorker(ctx, "job-1-w-1")
	require.NoError(t, err)
	assert.False(t, w.HasActiveMatch)
}

func TestDeclineKeepsWorkerHeldByOtherMatch(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, store.CreateWorker(ctx, &models.WorkerListing{ID: "w-1", HasActiveMatch: true}))
	require.NoError(t, store.CreateMatches(ctx, []*models.Match{
		{ID: "m-1", JobID: "job-1", WorkerID: "w-1", Priority: 1, Status: models.MatchStatusQueued},
		{ID: "m-2", JobID: "job-2", WorkerID: "w-1", Priority: 1, Status: models.MatchStatusAccepted},
	}))

	_, err := svc.Decline(ctx, "m-1")
	require.NoError(t, err)

	w, err := store.GetWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.True(t, w.HasActiveMatch)
}

func TestCompleteRequiresAccepted(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 1)

	// queued cannot jump straight to completed
	_, err := svc.Complete(ctx, "job-1-m-1")
	require.Error(t, err)

	m, err := store.GetMatch(ctx, "job-1-m-1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusQueued, m.Status)

	_, err = svc.Accept(ctx, "job-1-m-1")
	require.NoError(t, err)
	completed, err := svc.Complete(ctx, "job-1-m-1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusCompleted, completed.Status)
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 1)

	_, err := svc.Decline(ctx, "job-1-m-1")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, "job-1-m-1")
	require.Error(t, err)
	_, err = svc.Decline(ctx, "job-1-m-1")
	require.Error(t, err)

	m, err := store.GetMatch(ctx, "job-1-m-1")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusDeclined, m.Status)
}

func TestReorderShiftsIntermediateRanks(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 5)

	// moving rank 4 to rank 1 shifts old ranks 1,2,3 to 2,3,4 and leaves 5
	batch, err := svc.Reorder(ctx, "job-1-m-4", 1)
	require.NoError(t, err)
	require.Len(t, batch, 5)

	want := map[string]int{
		"job-1-m-4": 1,
		"job-1-m-1": 2,
		"job-1-m-2": 3,
		"job-1-m-3": 4,
		"job-1-m-5": 5,
	}
	for _, m := range batch {
		assert.Equal(t, want[m.ID], m.Priority, m.ID)
	}
}

func TestReorderDownward(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 5)

	batch, err := svc.Reorder(ctx, "job-1-m-2", 4)
	require.NoError(t, err)

	want := map[string]int{
		"job-1-m-1": 1,
		"job-1-m-3": 2,
		"job-1-m-4": 3,
		"job-1-m-2": 4,
		"job-1-m-5": 5,
	}
	seen := make(map[int]bool)
	for _, m := range batch {
		assert.Equal(t, want[m.ID], m.Priority, m.ID)
		assert.False(t, seen[m.Priority], "duplicate priority %d", m.Priority)
		seen[m.Priority] = true
	}
}

func TestReorderNoOpAndBounds(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 3)

	batch, err := svc.Reorder(ctx, "job-1-m-2", 2)
	require.NoError(t, err)
	for i, m := range batch {
		assert.Equal(t, i+1, m.Priority)
	}

	_, err = svc.Reorder(ctx, "job-1-m-2", 0)
	require.Error(t, err)
	_, err = svc.Reorder(ctx, "job-1-m-2", 4)
	require.Error(t, err)
}

func TestReorderClosedOnceBatchLeavesQueued(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 3)

	_, err := svc.Accept(ctx, "job-1-m-1")
	require.NoError(t, err)

	_, err = svc.Reorder(ctx, "job-1-m-2", 3)
	require.Error(t, err)
}

func TestSubmitReview(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 1)

	req := &models.ReviewRequest{
		Direction: models.ReviewWorkerToEmployer,
		Rating:    5,
		AuthorID:  "job-1-w-1",
	}

	// reviews require a completed match
	_, err := svc.SubmitReview(ctx, "job-1-m-1", req)
	require.Error(t, err)

	_, err = svc.Accept(ctx, "job-1-m-1")
	require.NoError(t, err)
	_, err = svc.Complete(ctx, "job-1-m-1")
	require.NoError(t, err)

	review, err := svc.SubmitReview(ctx, "job-1-m-1", req)
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	// one review per direction
	_, err = svc.SubmitReview(ctx, "job-1-m-1", req)
	require.Error(t, err)

	other := &models.ReviewRequest{Direction: models.ReviewEmployerToWorker, Rating: 4, AuthorID: "employer-1"}
	_, err = svc.SubmitReview(ctx, "job-1-m-1", other)
	require.NoError(t, err)

	reviews, err := svc.ListReviews(ctx, "job-1-m-1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}

func TestSubmitReviewRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	seedBatch(t, store, "job-1", 1)

	_, err := svc.Accept(ctx, "job-1-m-1")
	require.NoError(t, err)
	_, err = svc.Complete(ctx, "job-1-m-1")
	require.NoError(t, err)

	// rating bounds are enforced here, not only at the HTTP layer
	for _, rating := range []int{0, -1, 6, 7} {
		req := &models.ReviewRequest{
			Direction: models.ReviewWorkerToEmployer,
			Rating:    rating,
			AuthorID:  "job-1-w-1",
		}
		_, err := svc.SubmitReview(ctx, "job-1-m-1", req)
		require.Error(t, err, "rating %d", rating)
	}

	// and so is the direction tag
	bad := &models.ReviewRequest{Direction: "sideways", Rating: 3, AuthorID: "job-1-w-1"}
	_, err = svc.SubmitReview(ctx, "job-1-m-1", bad)
	require.Error(t, err)

	// nothing was persisted by the rejected attempts
	reviews, err := svc.ListReviews(ctx, "job-1-m-1")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}
