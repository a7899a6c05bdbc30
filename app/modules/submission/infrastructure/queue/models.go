package submissionqueue

// RecalculateJob rescores every attempt of one team in one round, after an
// operator moved that team's round start.
type RecalculateJob struct {
	TeamCode      string `json:"team_code"`
	Round         int    `json:"round"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Kind returns the job type identifier for River
func (RecalculateJob) Kind() string { return "submission_recalculate" }

// JobInfo represents information about a queued job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	TeamCode    string `json:"team_code"`
	Round       int    `json:"round"`
	State       string `json:"state"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
