package matching

import (
	"context"
	"sort"
	"sync"

	"ngandee-matcher/internal/logging"
	"ngandee-matcher/pkg/models"
)

// DefaultTopK bounds a ranking batch when the caller does not ask for a
// specific size.
const DefaultTopK = 5

// RankedCandidate is one scored entry of a ranking batch, before persistence.
type RankedCandidate struct {
	Worker   *models.WorkerListing
	Score    float64
	Priority int
}

// Ranker scores a candidate pool against a job concurrently and produces the
// truncated, dense-priority ranking.
type Ranker struct {
	scorer *Scorer
	logger logging.Logger
}

// NewRanker creates a new candidate ranker
func NewRanker(scorer *Scorer) *Ranker {
	return &Ranker{
		scorer: scorer,
		logger: logging.GetGlobalLogger(),
	}
}

// Rank filters out candidates owned by excludeOwnerID, scores the rest
// concurrently, sorts descending by score with ties kept in input order, and
// returns the first topK with priorities 1..N. An empty result is a valid
// no-candidates outcome, not an error. downgraded reports whether any
// comparison in the batch fell back to the lexical strategy.
func (r *Ranker) Rank(ctx context.Context, job *models.JobPosting, pool []*models.WorkerListing, excludeOwnerID string, topK int, useEmbeddings bool) ([]RankedCandidate, bool, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	eligible := make([]*models.WorkerListing, 0, len(pool))
	for _, worker := range pool {
		if worker.SeekerID != "" && worker.SeekerID == excludeOwnerID {
			continue
		}
		eligible = append(eligible, worker)
	}
	if len(eligible) == 0 {
		return nil, false, nil
	}

	// Fan out one goroutine per candidate; each writes only its own slot.
	scores := make([]float64, len(eligible))
	downgrades := make([]bool, len(eligible))
	errs := make([]error, len(eligible))

	var wg sync.WaitGroup
	for i, worker := range eligible {
		wg.Add(1)
		go func(i int, worker *models.WorkerListing) {
			defer wg.Done()
			scores[i], downgrades[i], errs[i] = r.scorer.Score(ctx, job, worker, useEmbeddings)
		}(i, worker)
	}
	wg.Wait()

	downgraded := false
	for i := range eligible {
		if errs[i] != nil {
			return nil, false, errs[i]
		}
		if downgrades[i] {
			downgraded = true
		}
	}

	order := make([]int, len(eligible))
	for i := range order {
		order[i] = i
	}
	// Stable sort keeps first-seen input order on score ties.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if len(order) > topK {
		order = order[:topK]
	}

	ranked := make([]RankedCandidate, len(order))
	for rank, idx := range order {
		ranked[rank] = RankedCandidate{
			Worker:   eligible[idx],
			Score:    scores[idx],
			Priority: rank + 1,
		}
	}

	r.logger.Debug("Ranking batch scored", map[string]interface{}{
		"job_id":     job.ID,
		"pool_size":  len(pool),
		"eligible":   len(eligible),
		"returned":   len(ranked),
		"downgraded": downgraded,
	})

	return ranked, downgraded, nil
}
