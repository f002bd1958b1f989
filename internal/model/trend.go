package model

import "github.com/google/uuid"

type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// TrendBucket is one fixed-width time window of vote activity. Daily buckets
// are maintained incrementally as votes land; weekly and monthly series are
// rolled up from daily buckets at query time. All period keys are UTC.
type TrendBucket struct {
	TargetID  *uuid.UUID `json:"target_id,omitempty"` // nil for the global series
	PeriodKey string     `json:"period_key"`
	Upvotes   int        `json:"upvotes"`
	Downvotes int        `json:"downvotes"`
	Total     int        `json:"total"`
}

// TrendPoint is one entry of a getTrend response.
type TrendPoint struct {
	PeriodKey string `json:"period_key"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Total     int    `json:"total"`
}
