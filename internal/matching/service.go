package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/internal/textsim"
	"ngandee-matcher/pkg/models"
	"ngandee-matcher/pkg/utils"
)

// Service runs ranking batches end to end: load the job and the eligible
// pool, rank, persist the batch as queued match records, and flag the job
// and the matched workers. Scoring happens first and is side-effect free;
// nothing is written until the whole batch is ranked.
type Service struct {
	config  *config.Config
	jobs    storage.JobStore
	workers storage.WorkerStore
	matches storage.MatchStore
	text    textsim.Comparer
	ranker  *Ranker
	logger  logging.Logger
}

// NewService creates a new matching service
func NewService(cfg *config.Config, jobs storage.JobStore, workers storage.WorkerStore, matches storage.MatchStore, text textsim.Comparer) *Service {
	return &Service{
		config:  cfg,
		jobs:    jobs,
		workers: workers,
		matches: matches,
		text:    text,
		ranker:  NewRanker(NewScorer(text)),
		logger:  logging.GetGlobalLogger(),
	}
}

// RankJob runs one ranking batch for the given job. The strategy is fixed at
// batch start: when embeddings are requested but the provider is down, the
// whole batch runs lexically and the response reports the downgrade. An
// empty pool after eligibility filtering is recorded as a no-candidates
// outcome with no match records.
func (s *Service) RankJob(ctx context.Context, jobID string, req *models.RankRequest) (*models.RankResponse, error) {
	start := time.Now()
	if req == nil {
		req = &models.RankRequest{}
	}

	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("job posting %s not found", jobID))
		}
		return nil, err
	}
	if job.MatchesGenerated {
		return nil, utils.NewBadRequestError(fmt.Sprintf("matches already generated for job %s", jobID))
	}

	all, err := s.workers.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	pool := make([]*models.WorkerListing, 0, len(all))
	for _, worker := range all {
		if worker.HasActiveMatch {
			continue
		}
		pool = append(pool, worker)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.config.Matching.TopK
	}

	requested := req.Options.Embeddings()
	effective := requested && s.text.EmbeddingsActive()
	batchDowngraded := requested && !effective

	ranked, scoringDowngraded, err := s.ranker.Rank(ctx, job, pool, job.PosterID, topK, effective)
	if err != nil {
		return nil, err
	}
	downgraded := batchDowngraded || scoringDowngraded

	strategy := textsim.StrategyLexical
	if effective {
		strategy = textsim.StrategyEmbedding
	}

	resp := &models.RankResponse{
		Success:    true,
		JobID:      job.ID,
		Downgraded: downgraded,
		Strategy:   strategy,
	}

	if len(ranked) == 0 {
		// Searched and found nothing: still flag the job so the outcome
		// is recorded rather than leaving it perpetually unscored.
		job.MatchesGenerated = true
		if err := s.jobs.UpdateJob(ctx, job); err != nil {
			return nil, err
		}
		resp.NoCandidates = true
		resp.Matches = []models.Match{}
		resp.ProcessingTime = time.Since(start)
		s.logger.Info("Ranking batch found no candidates", map[string]interface{}{
			"job_id": job.ID,
		})
		return resp, nil
	}

	now := time.Now()
	batch := make([]*models.Match, len(ranked))
	for i, rc := range ranked {
		batch[i] = &models.Match{
			ID:           utils.GenerateID(),
			JobID:        job.ID,
			WorkerID:     rc.Worker.ID,
			Score:        rc.Score,
			Priority:     rc.Priority,
			Status:       models.MatchStatusQueued,
			JobCategory:  job.Category,
			JobProvince:  job.Province,
			JobDate:      job.WorkDate,
			JobSalary:    job.Salary,
			PosterName:   job.PosterName,
			WorkerName:   rc.Worker.SeekerName,
			WorkerSkills: rc.Worker.Skills,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	if err := s.matches.CreateMatches(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to persist ranking batch for job %s: %w", job.ID, err)
	}

	// Every write after CreateMatches unwinds the batch on failure, so a
	// retried batch never stacks duplicate priorities onto a half-persisted
	// one. The batch is discarded whole and redone from scratch.
	flagged := make([]string, 0, len(ranked))
	for _, rc := range ranked {
		if err := s.workers.SetActiveMatch(ctx, rc.Worker.ID, true); err != nil {
			s.discardBatch(ctx, job.ID, flagged)
			return nil, fmt.Errorf("failed to flag worker %s for job %s: %w", rc.Worker.ID, job.ID, err)
		}
		flagged = append(flagged, rc.Worker.ID)
	}

	job.MatchesGenerated = true
	if err := s.jobs.UpdateJob(ctx, job); err != nil {
		s.discardBatch(ctx, job.ID, flagged)
		return nil, fmt.Errorf("failed to mark job %s as matched: %w", job.ID, err)
	}

	resp.Matches = make([]models.Match, len(batch))
	for i, m := range batch {
		resp.Matches[i] = *m
	}
	resp.ProcessingTime = time.Since(start)

	s.logger.Info("Ranking batch persisted", map[string]interface{}{
		"job_id":     job.ID,
		"matches":    len(batch),
		"strategy":   strategy,
		"downgraded": downgraded,
		"duration":   resp.ProcessingTime.String(),
	})

	return resp, nil
}

// discardBatch undoes a partially persisted ranking batch: matched-worker
// flags already set are cleared and the match records are deleted. Failures
// while unwinding are logged; there is nothing further to roll back.
func (s *Service) discardBatch(ctx context.Context, jobID string, flagged []string) {
	for _, workerID := range flagged {
		if err := s.workers.SetActiveMatch(ctx, workerID, false); err != nil {
			s.logger.Error("Failed to unflag worker while discarding ranking batch", map[string]interface{}{
				"job_id":    jobID,
				"worker_id": workerID,
				"error":     err.Error(),
			})
		}
	}
	if err := s.matches.DeleteMatchesForJob(ctx, jobID); err != nil {
		s.logger.Error("Failed to discard ranking batch", map[string]interface{}{
			"job_id": jobID,
			"error":  err.Error(),
		})
	}
}
