package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"ngandee-matcher/pkg/models"
)

// MemoryStore is an in-memory implementation of all four store interfaces,
// guarded by a single RWMutex. It backs tests and single-node deployments;
// a document store can replace it behind the same interfaces.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]*models.JobPosting
	workers map[string]*models.WorkerListing
	matches map[string]*models.Match
	reviews map[string][]*models.Review // keyed by match ID
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*models.JobPosting),
		workers: make(map[string]*models.WorkerListing),
		matches: make(map[string]*models.Match),
		reviews: make(map[string][]*models.Review),
	}
}

func (s *MemoryStore) CreateJob(_ context.Context, job *models.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (*models.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, job *models.JobPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return ErrJobNotFound
	}
	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

func (s *MemoryStore) ListJobs(_ context.Context) ([]*models.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobs := make([]*models.JobPosting, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *MemoryStore) CreateWorker(_ context.Context, worker *models.WorkerListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *worker
	s.workers[worker.ID] = &stored
	return nil
}

func (s *MemoryStore) GetWorker(_ context.Context, id string) (*models.WorkerListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	worker, ok := s.workers[id]
	if !ok {
		return nil, ErrWorkerNotFound
	}
	copied := *worker
	return &copied, nil
}

func (s *MemoryStore) ListWorkers(_ context.Context) ([]*models.WorkerListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	workers := make([]*models.WorkerListing, 0, len(s.workers))
	for _, worker := range s.workers {
		copied := *worker
		workers = append(workers, &copied)
	}
	sort.Slice(workers, func(i, j int) bool {
		return workers[i].CreatedAt.Before(workers[j].CreatedAt)
	})
	return workers, nil
}

func (s *MemoryStore) SetActiveMatch(_ context.Context, workerID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	worker, ok := s.workers[workerID]
	if !ok {
		return ErrWorkerNotFound
	}
	worker.HasActiveMatch = active
	return nil
}

// CreateMatches writes the whole batch under one lock acquisition, so no
// reader ever observes a partially written batch.
func (s *MemoryStore) CreateMatches(_ context.Context, matches []*models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range matches {
		stored := *m
		s.matches[m.ID] = &stored
	}
	return nil
}

func (s *MemoryStore) DeleteMatchesForJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.matches {
		if m.JobID == jobID {
			delete(s.matches, id)
		}
	}
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (s *MemoryStore) UpdateMatchStatus(_ context.Context, id string, status models.MatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	match.Status = status
	match.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) UpdateMatchPriority(_ context.Context, id string, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[id]
	if !ok {
		return ErrMatchNotFound
	}
	match.Priority = priority
	match.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListMatchesForJob(_ context.Context, jobID string) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*models.Match, 0)
	for _, m := range s.matches {
		if m.JobID == jobID {
			copied := *m
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Priority < matches[j].Priority
	})
	return matches, nil
}

func (s *MemoryStore) ListMatchesForWorker(_ context.Context, workerID string) ([]*models.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*models.Match, 0)
	for _, m := range s.matches {
		if m.WorkerID == workerID {
			copied := *m
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (s *MemoryStore) CreateReview(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews[review.MatchID] {
		if existing.Direction == review.Direction {
			return ErrReviewExists
		}
	}
	stored := *review
	s.reviews[review.MatchID] = append(s.reviews[review.MatchID], &stored)
	return nil
}

func (s *MemoryStore) ListReviewsForMatch(_ context.Context, matchID string) ([]*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviews := make([]*models.Review, 0, len(s.reviews[matchID]))
	for _, r := range s.reviews[matchID] {
		copied := *r
		reviews = append(reviews, &copied)
	}
	return reviews, nil
}
