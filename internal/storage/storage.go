// Package storage defines the persistence contract the matching and
// lifecycle services depend on, plus an in-memory implementation. Stores
// return copies; callers never share pointers with a store's internal state.
package storage

import (
	"context"
	"errors"

	"ngandee-matcher/pkg/models"
)

var (
	ErrJobNotFound    = errors.New("job posting not found")
	ErrWorkerNotFound = errors.New("worker listing not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrReviewExists   = errors.New("review already submitted for this direction")
)

// JobStore persists job postings
type JobStore interface {
	CreateJob(ctx context.Context, job *models.JobPosting) error
	GetJob(ctx context.Context, id string) (*models.JobPosting, error)
	UpdateJob(ctx context.Context, job *models.JobPosting) error
	ListJobs(ctx context.Context) ([]*models.JobPosting, error)
}

// WorkerStore persists worker listings
type WorkerStore interface {
	CreateWorker(ctx context.Context, worker *models.WorkerListing) error
	GetWorker(ctx context.Context, id string) (*models.WorkerListing, error)
	ListWorkers(ctx context.Context) ([]*models.WorkerListing, error)

	// SetActiveMatch maintains the denormalized HasActiveMatch flag.
	SetActiveMatch(ctx context.Context, workerID string, active bool) error
}

// MatchStore persists match records. CreateMatches writes a whole ranking
// batch or nothing, so persisted priorities are always a contiguous 1..N set.
// DeleteMatchesForJob discards a batch whose follow-up writes failed, so a
// redo never stacks a second batch on top of the first.
type MatchStore interface {
	CreateMatches(ctx context.Context, matches []*models.Match) error
	DeleteMatchesForJob(ctx context.Context, jobID string) error
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	UpdateMatchStatus(ctx context.Context, id string, status models.MatchStatus) error
	UpdateMatchPriority(ctx context.Context, id string, priority int) error
	ListMatchesForJob(ctx context.Context, jobID string) ([]*models.Match, error)
	ListMatchesForWorker(ctx context.Context, workerID string) ([]*models.Match, error)
}

// ReviewStore persists reviews on completed matches
type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	ListReviewsForMatch(ctx context.Context, matchID string) ([]*models.Review, error)
}
