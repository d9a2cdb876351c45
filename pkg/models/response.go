package models

import "time"

// RankResponse represents the response from a synchronous ranking request.
type RankResponse struct {
	Success        bool          `json:"success"`
	JobID          string        `json:"job_id"`
	Matches        []Match       `json:"matches"`
	NoCandidates   bool          `json:"no_candidates"`
	Downgraded     bool          `json:"downgraded"`
	Strategy       string        `json:"strategy"`
	ProcessingTime time.Duration `json:"processing_time"`
	RequestID      string        `json:"request_id"`
}

// AsyncResponse acknowledges a request accepted for background processing.
type AsyncResponse struct {
	ProcessID string    `json:"processId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
