package models

import "time"

// JobPosting represents a labor request created by an employer.
// WorkDate is a single calendar day ("2006-01-02"); StartTime and EndTime
// are times of day ("15:04") within that same day. Overnight shifts
// (EndTime <= StartTime) are rejected at intake.
type JobPosting struct {
	ID          string `json:"id"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`

	WorkDate  string `json:"work_date" validate:"required,work_date"`
	StartTime string `json:"start_time" validate:"required,time_of_day"`
	EndTime   string `json:"end_time" validate:"required,time_of_day"`

	Address     string `json:"address,omitempty"`
	Province    string `json:"province" validate:"required"`
	District    string `json:"district"`
	Subdistrict string `json:"subdistrict"`

	Salary float64 `json:"salary" validate:"required,gt=0"`

	PosterID    string `json:"poster_id" validate:"required"`
	PosterName  string `json:"poster_name"`
	PosterEmail string `json:"poster_email" validate:"omitempty,email"`

	// MatchesGenerated is set once a ranking batch has been persisted
	// against this posting. The posting is treated as immutable after that.
	MatchesGenerated bool `json:"matches_generated"`

	CreatedAt time.Time `json:"created_at"`
}

// WorkerListing represents a job-seeking request created by a worker.
type WorkerListing struct {
	ID       string `json:"id"`
	Category string `json:"category" validate:"required"`
	Skills   string `json:"skills"`

	WorkDate  string `json:"work_date" validate:"required,work_date"`
	StartTime string `json:"start_time" validate:"required,time_of_day"`
	EndTime   string `json:"end_time" validate:"required,time_of_day"`

	Province    string `json:"province" validate:"required"`
	District    string `json:"district"`
	Subdistrict string `json:"subdistrict"`

	SalaryMin float64 `json:"salary_min" validate:"gte=0"`
	SalaryMax float64 `json:"salary_max" validate:"gtefield=SalaryMin"`

	SeekerID    string `json:"seeker_id" validate:"required"`
	SeekerName  string `json:"seeker_name"`
	SeekerEmail string `json:"seeker_email" validate:"omitempty,email"`
	// Gender is display metadata only; it is never a scoring criterion.
	Gender string `json:"gender,omitempty"`

	// HasActiveMatch is maintained alongside match creation and decline so
	// eligibility checks never need to scan the match set.
	HasActiveMatch bool `json:"has_active_match"`

	CreatedAt time.Time `json:"created_at"`
}

// MatchStatus values mirror the match lifecycle states.
type MatchStatus string

const (
	MatchStatusQueued    MatchStatus = "queued"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusDeclined  MatchStatus = "declined"
	MatchStatusCompleted MatchStatus = "completed"
)

// Match is a scored, ranked and stateful pairing between one JobPosting and
// one WorkerListing. Score is the value computed at creation time and is
// never recomputed. Priority is dense within the batch created for one job
// (1 = best). Display fields are denormalized so a match can be rendered
// without re-joining either side.
type Match struct {
	ID       string `json:"id"`
	JobID    string `json:"job_id"`
	WorkerID string `json:"worker_id"`

	Score    float64     `json:"score"`
	Priority int         `json:"priority"`
	Status   MatchStatus `json:"status"`

	JobCategory string  `json:"job_category"`
	JobProvince string  `json:"job_province"`
	JobDate     string  `json:"job_date"`
	JobSalary   float64 `json:"job_salary"`
	PosterName  string  `json:"poster_name"`

	WorkerName   string `json:"worker_name"`
	WorkerSkills string `json:"worker_skills,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether this match blocks its worker from re-matching.
// Declined matches free the worker; everything else holds them.
func (m *Match) IsActive() bool {
	return m.Status != MatchStatusDeclined
}

// ReviewDirection tags which party authored a review.
type ReviewDirection string

const (
	ReviewWorkerToEmployer ReviewDirection = "worker_to_employer"
	ReviewEmployerToWorker ReviewDirection = "employer_to_worker"
)

// Review is attached to a completed match, at most one per direction.
type Review struct {
	ID        string          `json:"id"`
	MatchID   string          `json:"match_id"`
	Direction ReviewDirection `json:"direction"`
	Rating    int             `json:"rating"`
	Comment   string          `json:"comment,omitempty"`
	AuthorID  string          `json:"author_id"`
	CreatedAt time.Time       `json:"created_at"`
}
