package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote ledger metrics
var (
	// VotesTotal tracks ledger mutations by target type and operation
	// (cast/undo/switch/remove).
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_votes_total",
			Help: "Total vote ledger mutations by target type and operation",
		},
		[]string{"target_type", "operation"},
	)

	// VoteConflictsTotal tracks mutations that hit concurrent-modification
	// conflicts and were retried.
	VoteConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_vote_conflicts_total",
			Help: "Total vote mutations retried after a concurrency conflict",
		},
	)

	// ReconciliationsTotal tracks aggregate rebuilds from vote rows.
	ReconciliationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_aggregate_reconciliations_total",
			Help: "Total aggregate reconciliations from vote rows",
		},
	)
)

// Moderation metrics
var (
	// FlagsTotal tracks flag actions on reviews.
	FlagsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_review_flags_total",
			Help: "Total flag actions recorded on reviews",
		},
	)

	// EscalationsTotal tracks automatic pending/approved -> flagged transitions.
	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_review_escalations_total",
			Help: "Total automatic flag-threshold escalations",
		},
	)

	// TransitionsTotal tracks moderation state transitions by from/to state.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_moderation_transitions_total",
			Help: "Total moderation state transitions by from and to state",
		},
		[]string{"from", "to"},
	)

	// RepliesTotal tracks replies appended to review threads.
	RepliesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedback_replies_total",
			Help: "Total replies appended to review threads",
		},
	)
)
