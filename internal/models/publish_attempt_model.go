package models

import "time"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// PublishAttempt records what happened when a post was sent to one platform.
type PublishAttempt struct {
	ID           string    `db:"id" json:"id"`
	PostID       string    `db:"post_id" json:"post_id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	Platform     Platform  `db:"platform" json:"platform"`
	Attempt      int       `db:"attempt" json:"attempt"`
	Outcome      Outcome   `db:"outcome" json:"outcome"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	RemoteID     string    `db:"remote_id" json:"remote_id"`
	AttemptedAt  time.Time `db:"attempted_at" json:"attempted_at"`
}
