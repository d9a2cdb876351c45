package matching

import (
	"context"
	"strings"

	"ngandee-matcher/internal/similarity"
	"ngandee-matcher/internal/textsim"
	"ngandee-matcher/pkg/models"
	"ngandee-matcher/pkg/utils"
)

// Scorer computes the weighted match score between one job posting and one
// worker listing. It is stateless apart from the text similarity provider it
// delegates description scoring to.
type Scorer struct {
	text textsim.Comparer
}

// NewScorer creates a new match scorer
func NewScorer(text textsim.Comparer) *Scorer {
	return &Scorer{text: text}
}

// Score returns a value in [0,1] plus a flag reporting whether description
// scoring was downgraded to the lexical strategy. A criterion with missing
// inputs on either side contributes 0; its weight is still spent, never
// redistributed. Score never fails on bad data, only on context cancellation.
func (s *Scorer) Score(ctx context.Context, job *models.JobPosting, worker *models.WorkerListing, useEmbeddings bool) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	w := WeightsFor(useEmbeddings)

	descScore, downgraded, err := s.text.Compare(ctx, job.Description, worker.Skills, useEmbeddings)
	if err != nil {
		return 0, false, err
	}

	total := w.Category*categoryMatch(job.Category, worker.Category) +
		w.Location*similarity.Location(job.Province, job.District, job.Subdistrict,
			worker.Province, worker.District, worker.Subdistrict) +
		w.Time*similarity.TimeOverlap(job.StartTime, job.EndTime, worker.StartTime, worker.EndTime) +
		w.Date*similarity.DateMatch(job.WorkDate, worker.WorkDate) +
		w.Description*descScore +
		w.Salary*similarity.SalaryMatch(job.Salary, worker.SalaryMin, worker.SalaryMax)

	return utils.Clamp01(total), downgraded, nil
}

// categoryMatch is exact case-insensitive equality. Missing on either side
// scores 0 even when both are missing.
func categoryMatch(jobCategory, workerCategory string) float64 {
	a := strings.TrimSpace(jobCategory)
	b := strings.TrimSpace(workerCategory)
	if a == "" || b == "" {
		return 0.0
	}
	if strings.EqualFold(a, b) {
		return 1.0
	}
	return 0.0
}
