package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/pkg/models"
	"ngandee-matcher/pkg/utils"
)

// Service applies lifecycle actions to match records. Every transition is
// validated against the state machine before any write; a rejected
// transition leaves the record untouched.
type Service struct {
	matches storage.MatchStore
	workers storage.WorkerStore
	reviews storage.ReviewStore
	logger  logging.Logger
}

// NewService creates a new lifecycle service
func NewService(matches storage.MatchStore, workers storage.WorkerStore, reviews storage.ReviewStore) *Service {
	return &Service{
		matches: matches,
		workers: workers,
		reviews: reviews,
		logger:  logging.GetGlobalLogger(),
	}
}

func (s *Service) getMatch(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, storage.ErrMatchNotFound) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("match %s not found", matchID))
		}
		return nil, err
	}
	return match, nil
}

func (s *Service) transition(ctx context.Context, match *models.Match, to models.MatchStatus) error {
	if !IsTransitionAllowed(match.Status, to) {
		return utils.NewInvalidTransitionError(fmt.Sprintf("cannot move match %s from %s to %s", match.ID, match.Status, to))
	}
	if err := s.matches.UpdateMatchStatus(ctx, match.ID, to); err != nil {
		return err
	}
	s.logger.Info("Match transitioned", map[string]interface{}{
		"match_id": match.ID,
		"from":     string(match.Status),
		"to":       string(to),
	})
	return nil
}

// Accept moves a queued match to accepted and auto-declines every other
// queued match held by the same worker listing, so at most one accepted
// match exists per listing. The worker keeps its active flag.
func (s *Service) Accept(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, match, models.MatchStatusAccepted); err != nil {
		return nil, err
	}

	siblings, err := s.matches.ListMatchesForWorker(ctx, match.WorkerID)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if sibling.ID == match.ID || sibling.Status != models.MatchStatusQueued {
			continue
		}
		if err := s.matches.UpdateMatchStatus(ctx, sibling.ID, models.MatchStatusDeclined); err != nil {
			return nil, err
		}
		s.logger.Info("Sibling match auto-declined", map[string]interface{}{
			"match_id":    sibling.ID,
			"accepted_id": match.ID,
			"worker_id":   match.WorkerID,
		})
	}

	return s.getMatch(ctx, matchID)
}

// Decline moves a queued match to declined. When the worker holds no other
// active match afterwards, the listing becomes eligible for a fresh ranking
// pass; re-ranking itself stays an explicit caller action.
func (s *Service) Decline(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, match, models.MatchStatusDeclined); err != nil {
		return nil, err
	}

	remaining, err := s.matches.ListMatchesForWorker(ctx, match.WorkerID)
	if err != nil {
		return nil, err
	}
	stillActive := false
	for _, m := range remaining {
		if m.IsActive() {
			stillActive = true
			break
		}
	}
	if !stillActive {
		if err := s.workers.SetActiveMatch(ctx, match.WorkerID, false); err != nil && !errors.Is(err, storage.ErrWorkerNotFound) {
			return nil, err
		}
	}

	return s.getMatch(ctx, matchID)
}

// Complete moves an accepted match to completed, enabling mutual review
// submission. Either party may trigger it.
func (s *Service) Complete(ctx context.Context, matchID string) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, match, models.MatchStatusCompleted); err != nil {
		return nil, err
	}
	return s.getMatch(ctx, matchID)
}

// Reorder moves a queued match to a new priority slot within its batch and
// renumbers every entry strictly between the old and new slot by one step,
// keeping priorities a contiguous 1..N permutation. Allowed only while the
// whole batch is still queued.
func (s *Service) Reorder(ctx context.Context, matchID string, newPriority int) ([]*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusQueued {
		return nil, utils.NewInvalidTransitionError(fmt.Sprintf("match %s is %s; priority edits require queued", match.ID, match.Status))
	}

	batch, err := s.matches.ListMatchesForJob(ctx, match.JobID)
	if err != nil {
		return nil, err
	}
	for _, m := range batch {
		if m.Status != models.MatchStatusQueued {
			return nil, utils.NewInvalidTransitionError(fmt.Sprintf("batch for job %s has non-queued matches; reorder is closed", match.JobID))
		}
	}
	if newPriority < 1 || newPriority > len(batch) {
		return nil, utils.NewBadRequestError(fmt.Sprintf("priority %d out of range 1..%d", newPriority, len(batch)))
	}

	oldPriority := match.Priority
	if newPriority == oldPriority {
		return batch, nil
	}

	for _, m := range batch {
		var target int
		switch {
		case m.ID == match.ID:
			target = newPriority
		case newPriority < oldPriority && m.Priority >= newPriority && m.Priority < oldPriority:
			target = m.Priority + 1
		case newPriority > oldPriority && m.Priority > oldPriority && m.Priority <= newPriority:
			target = m.Priority - 1
		default:
			continue
		}
		if err := s.matches.UpdateMatchPriority(ctx, m.ID, target); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Match batch reordered", map[string]interface{}{
		"match_id": match.ID,
		"job_id":   match.JobID,
		"from":     oldPriority,
		"to":       newPriority,
	})

	return s.matches.ListMatchesForJob(ctx, match.JobID)
}

// SubmitReview attaches a review to a completed match, at most one per
// direction.
func (s *Service) SubmitReview(ctx context.Context, matchID string, req *models.ReviewRequest) (*models.Review, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusCompleted {
		return nil, utils.NewInvalidTransitionError(fmt.Sprintf("match %s is %s; reviews require completed", match.ID, match.Status))
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, utils.NewValidationError(fmt.Sprintf("rating must be between 1 and 5, got %d", req.Rating))
	}
	if req.Direction != models.ReviewWorkerToEmployer && req.Direction != models.ReviewEmployerToWorker {
		return nil, utils.NewValidationError(fmt.Sprintf("unknown review direction %q", req.Direction))
	}

	review := &models.Review{
		ID:        utils.GenerateID(),
		MatchID:   match.ID,
		Direction: req.Direction,
		Rating:    req.Rating,
		Comment:   req.Comment,
		AuthorID:  req.AuthorID,
		CreatedAt: time.Now(),
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		if errors.Is(err, storage.ErrReviewExists) {
			return nil, utils.NewBadRequestError(fmt.Sprintf("a %s review already exists for match %s", req.Direction, match.ID))
		}
		return nil, err
	}
	return review, nil
}

// ListReviews returns the reviews attached to a match
func (s *Service) ListReviews(ctx context.Context, matchID string) ([]*models.Review, error) {
	if _, err := s.getMatch(ctx, matchID); err != nil {
		return nil, err
	}
	return s.reviews.ListReviewsForMatch(ctx, matchID)
}
