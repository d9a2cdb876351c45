// Package lifecycle defines the match state machine and the service that
// applies worker and employer actions to match records.
//
// Valid status graph:
//
//	queued ──► accepted ──► completed
//	   │
//	   └─────► declined
//
// declined and completed are terminal states.
package lifecycle

import (
	"fmt"

	"ngandee-matcher/pkg/models"
)

// validTransitions lists every allowed (from, to) pair. Priority edits are a
// separate rule: they are permitted only while a match is still queued.
var validTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchStatusQueued:   {models.MatchStatusAccepted, models.MatchStatusDeclined},
	models.MatchStatusAccepted: {models.MatchStatusCompleted},
	// declined and completed are terminal, no outgoing transitions
}

// ParseStatus converts a raw string to a MatchStatus, returning an error for
// unknown values.
func ParseStatus(s string) (models.MatchStatus, error) {
	st := models.MatchStatus(s)
	switch st {
	case models.MatchStatusQueued, models.MatchStatusAccepted, models.MatchStatusDeclined, models.MatchStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown match status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to models.MatchStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true when the status has no outgoing transitions.
func IsTerminal(s models.MatchStatus) bool {
	return len(validTransitions[s]) == 0
}
