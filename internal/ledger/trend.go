package ledger

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/civicvoice/civicvoice_api/internal/errors"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/google/uuid"
)

// Period keys are always derived in UTC so bucket boundaries are unambiguous.
// Daily buckets are the stored granularity; weekly and monthly series are
// rolled up from them at query time.

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, week)
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func periodKey(t time.Time, period model.PeriodType) string {
	switch period {
	case model.PeriodWeekly:
		return weekKey(t)
	case model.PeriodMonthly:
		return monthKey(t)
	default:
		return dayKey(t)
	}
}

// periodStart returns the UTC start of the period containing t.
func periodStart(t time.Time, period model.PeriodType) time.Time {
	t = t.UTC()
	switch period {
	case model.PeriodWeekly:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7 // ISO weeks start on Monday
		}
		t = t.AddDate(0, 0, -(weekday - 1))
	case model.PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// prevPeriods returns the starts of the `limit` most recent periods ending at
// the one containing now, in ascending order.
func prevPeriods(now time.Time, period model.PeriodType, limit int) []time.Time {
	current := periodStart(now, period)
	starts := make([]time.Time, limit)
	for i := 0; i < limit; i++ {
		offset := limit - 1 - i
		switch period {
		case model.PeriodWeekly:
			starts[i] = current.AddDate(0, 0, -7*offset)
		case model.PeriodMonthly:
			starts[i] = current.AddDate(0, -offset, 0)
		default:
			starts[i] = current.AddDate(0, 0, -offset)
		}
	}
	return starts
}

// GetTrend returns the `limit` most recent periods of vote activity for
// target in ascending chronological order, zero-filled for periods with no
// activity. A nil target returns the global series across all targets.
func (s *Service) GetTrend(ctx context.Context, target *uuid.UUID, period model.PeriodType, limit int) ([]model.TrendPoint, error) {
	switch period {
	case model.PeriodDaily, model.PeriodWeekly, model.PeriodMonthly:
	default:
		return nil, apperrors.Validation("period_type must be daily, weekly or monthly")
	}
	if limit <= 0 {
		return nil, apperrors.Validation("limit must be positive")
	}

	now := s.clock.Now().UTC()
	starts := prevPeriods(now, period, limit)

	points := make([]model.TrendPoint, limit)
	index := make(map[string]int, limit)
	for i, start := range starts {
		key := periodKey(start, period)
		points[i] = model.TrendPoint{PeriodKey: key}
		index[key] = i
	}

	buckets, err := s.store.ListDailyBuckets(ctx, target, dayKey(starts[0]), dayKey(now))
	if err != nil {
		return nil, apperrors.Internal("failed to list trend buckets", err)
	}

	for _, bucket := range buckets {
		day, err := time.ParseInLocation("2006-01-02", bucket.PeriodKey, time.UTC)
		if err != nil {
			return nil, apperrors.Internal("malformed day bucket key", err)
		}
		i, ok := index[periodKey(day, period)]
		if !ok {
			continue
		}
		points[i].Upvotes += bucket.Upvotes
		points[i].Downvotes += bucket.Downvotes
		points[i].Total += bucket.Total
	}

	return points, nil
}
