package model

import (
	"time"

	"github.com/google/uuid"
)

type TargetType string

const (
	TargetOffice TargetType = "office"
	TargetReview TargetType = "review"
)

type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

type Vote struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TargetID   uuid.UUID  `json:"target_id"`
	TargetType TargetType `json:"target_type"`
	VoteType   VoteType   `json:"vote_type"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// VoteAggregate holds the running per-target counts. It is derived state:
// Reconcile can always rebuild it from the vote rows.
type VoteAggregate struct {
	TargetID  uuid.UUID `json:"target_id"`
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	Total     int       `json:"total"`
	Ratio     int       `json:"ratio"`
}

// VoteDelta is the signed change one ledger operation applies to an aggregate.
type VoteDelta struct {
	Upvotes   int
	Downvotes int
}

func (d VoteDelta) IsZero() bool {
	return d.Upvotes == 0 && d.Downvotes == 0
}

// Add folds the delta into the aggregate and refreshes total and ratio.
func (a *VoteAggregate) Add(d VoteDelta) {
	a.Upvotes += d.Upvotes
	a.Downvotes += d.Downvotes
	a.Total = a.Upvotes + a.Downvotes
	a.Ratio = Ratio(a.Upvotes, a.Total)
}

// Ratio returns upvotes as a percentage of total, rounded to the nearest
// whole percent. A total of zero yields zero.
func Ratio(upvotes, total int) int {
	if total <= 0 {
		return 0
	}
	return (upvotes*200 + total) / (total * 2)
}
