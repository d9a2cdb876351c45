package models

// RankRequest represents the request payload for ranking candidates
// against a job posting.
type RankRequest struct {
	TopK    int          `json:"top_k,omitempty" validate:"omitempty,gte=1,lte=50"`
	Options *RankOptions `json:"options,omitempty"`
}

// RankOptions provides additional configuration for ranking requests.
type RankOptions struct {
	// UseEmbeddings selects the embedding text-similarity strategy. It
	// defaults to true and falls back to lexical matching when the
	// embedding provider is unavailable.
	UseEmbeddings *bool `json:"use_embeddings,omitempty"`
}

// Embeddings resolves the strategy flag with its default of true.
func (o *RankOptions) Embeddings() bool {
	if o == nil || o.UseEmbeddings == nil {
		return true
	}
	return *o.UseEmbeddings
}

// StatusUpdateRequest carries the actor for a lifecycle transition.
type StatusUpdateRequest struct {
	ActorID string `json:"actor_id" validate:"required"`
}

// PriorityUpdateRequest moves a queued match to a new priority slot.
type PriorityUpdateRequest struct {
	Priority int `json:"priority" validate:"required,gte=1"`
}

// ReviewRequest represents the payload for submitting a review on a
// completed match.
type ReviewRequest struct {
	Direction ReviewDirection `json:"direction" validate:"required,oneof=worker_to_employer employer_to_worker"`
	Rating    int             `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string          `json:"comment,omitempty" validate:"max=2000"`
	AuthorID  string          `json:"author_id" validate:"required"`
}
