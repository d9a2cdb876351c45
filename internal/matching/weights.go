// Package matching implements scoring and ranking of worker listings against
// a job posting, and the service that persists a ranking batch as match
// records.
package matching

// Weights is a criterion weight preset. Each preset sums to 1.0, so a
// weighted score never needs renormalization.
type Weights struct {
	Category    float64
	Location    float64
	Time        float64
	Date        float64
	Description float64
	Salary      float64
}

// BasicWeights is used when text similarity answers lexically.
var BasicWeights = Weights{
	Category:    0.20,
	Location:    0.20,
	Time:        0.10,
	Date:        0.10,
	Description: 0.20,
	Salary:      0.20,
}

// EmbeddingWeights shifts weight toward description similarity when the
// embedding strategy is active for the scoring pass.
var EmbeddingWeights = Weights{
	Category:    0.15,
	Location:    0.15,
	Time:        0.10,
	Date:        0.10,
	Description: 0.40,
	Salary:      0.10,
}

// WeightsFor selects the preset for a scoring pass. The choice is made once
// per batch so a mid-batch fallback never mixes presets.
func WeightsFor(useEmbeddings bool) Weights {
	if useEmbeddings {
		return EmbeddingWeights
	}
	return BasicWeights
}
