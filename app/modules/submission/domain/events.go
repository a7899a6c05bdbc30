package submissiondomain

import "time"

// SubmissionRecordedV1 is published after an attempt is committed to the ledger.
const SubmissionRecordedV1 = "ctf.submission.recorded.v1"

// SubmissionRecordedPayloadV1 describes a committed attempt. It never carries flag text.
type SubmissionRecordedPayloadV1 struct {
	AttemptID     string        `json:"attemptId"`
	TeamCode      string        `json:"teamCode"`
	Round         int           `json:"round"`
	ChallengeType ChallengeType `json:"challengeType"`
	Correct       bool          `json:"correct"`
	AttemptNumber int           `json:"attemptNumber"`
	Points        float64       `json:"points"`
	SubmittedAt   time.Time     `json:"submittedAt"`
}
