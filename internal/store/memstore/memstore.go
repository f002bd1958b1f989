// Package memstore is an in-memory implementation of the store boundary.
// Mutations on one target are serialized by a per-target mutex; targets never
// contend with each other.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/internal/store"
	"github.com/google/uuid"
)

type dayCounts struct {
	upvotes   int
	downvotes int
}

type targetState struct {
	mu    sync.Mutex
	votes map[uuid.UUID]model.Vote // keyed by user
	agg   model.VoteAggregate
	days  map[string]*dayCounts
}

type reviewState struct {
	mu      sync.Mutex
	review  model.Review
	flags   map[uuid.UUID]struct{}
	replies []model.Reply
}

type Store struct {
	mu      sync.RWMutex
	offices map[uuid.UUID]model.Office
	targets map[uuid.UUID]*targetState
	reviews map[uuid.UUID]*reviewState
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		offices: make(map[uuid.UUID]model.Office),
		targets: make(map[uuid.UUID]*targetState),
		reviews: make(map[uuid.UUID]*reviewState),
	}
}

// target returns the vote state for id, creating it on first use.
func (s *Store) target(id uuid.UUID) *targetState {
	s.mu.RLock()
	t, ok := s.targets[id]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok = s.targets[id]; ok {
		return t
	}
	t = &targetState{
		votes: make(map[uuid.UUID]model.Vote),
		agg:   model.VoteAggregate{TargetID: id},
		days:  make(map[string]*dayCounts),
	}
	s.targets[id] = t
	return t
}

func (s *Store) CreateOffice(_ context.Context, office model.Office) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offices[office.ID] = office
	return nil
}

func (s *Store) GetOffice(_ context.Context, id uuid.UUID) (model.Office, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	office, ok := s.offices[id]
	if !ok {
		return model.Office{}, store.ErrNotFound
	}
	return office, nil
}

func (s *Store) ListOffices(_ context.Context, category string) ([]model.Office, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offices := make([]model.Office, 0, len(s.offices))
	for _, office := range s.offices {
		if category != "" && office.Category != category {
			continue
		}
		offices = append(offices, office)
	}
	sort.Slice(offices, func(i, j int) bool {
		return offices[i].CreatedAt.After(offices[j].CreatedAt)
	})
	return offices, nil
}

func (s *Store) GetVote(_ context.Context, userID, targetID uuid.UUID) (model.Vote, error) {
	t := s.target(targetID)
	t.mu.Lock()
	defer t.mu.Unlock()

	vote, ok := t.votes[userID]
	if !ok {
		return model.Vote{}, store.ErrNotFound
	}
	return vote, nil
}

func (s *Store) ListVotes(_ context.Context, targetID uuid.UUID) ([]model.Vote, error) {
	t := s.target(targetID)
	t.mu.Lock()
	defer t.mu.Unlock()

	votes := make([]model.Vote, 0, len(t.votes))
	for _, vote := range t.votes {
		votes = append(votes, vote)
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].CreatedAt.Before(votes[j].CreatedAt)
	})
	return votes, nil
}

func (s *Store) GetAggregate(_ context.Context, targetID uuid.UUID) (model.VoteAggregate, error) {
	t := s.target(targetID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.agg, nil
}

func (s *Store) ApplyVote(_ context.Context, m store.VoteMutation) (model.VoteAggregate, error) {
	t := s.target(m.TargetID)
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, hasVote := t.votes[m.UserID]

	switch m.Op {
	case store.OpInsert:
		if hasVote {
			return model.VoteAggregate{}, store.ErrConflict
		}
		t.votes[m.UserID] = model.Vote{
			ID:         uuid.New(),
			UserID:     m.UserID,
			TargetID:   m.TargetID,
			TargetType: m.TargetType,
			VoteType:   m.VoteType,
			CreatedAt:  m.At,
			UpdatedAt:  m.At,
		}
	case store.OpDelete:
		if !hasVote || existing.VoteType != m.PrevType {
			return model.VoteAggregate{}, store.ErrConflict
		}
		delete(t.votes, m.UserID)
	case store.OpSwitch:
		if !hasVote || existing.VoteType != m.PrevType {
			return model.VoteAggregate{}, store.ErrConflict
		}
		existing.VoteType = m.VoteType
		existing.UpdatedAt = m.At
		t.votes[m.UserID] = existing
	}

	t.agg.Add(m.Delta)

	day, ok := t.days[m.DayKey]
	if !ok {
		day = &dayCounts{}
		t.days[m.DayKey] = day
	}
	day.upvotes += m.Delta.Upvotes
	day.downvotes += m.Delta.Downvotes

	return t.agg, nil
}

func (s *Store) PutAggregate(_ context.Context, agg model.VoteAggregate) error {
	t := s.target(agg.TargetID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.agg = agg
	return nil
}

func (s *Store) ListDailyBuckets(_ context.Context, target *uuid.UUID, fromKey, toKey string) ([]model.TrendBucket, error) {
	s.mu.RLock()
	states := make([]*targetState, 0, len(s.targets))
	if target != nil {
		if t, ok := s.targets[*target]; ok {
			states = append(states, t)
		}
	} else {
		for _, t := range s.targets {
			states = append(states, t)
		}
	}
	s.mu.RUnlock()

	totals := make(map[string]*dayCounts)
	for _, t := range states {
		t.mu.Lock()
		for key, day := range t.days {
			if key < fromKey || key > toKey {
				continue
			}
			sum, ok := totals[key]
			if !ok {
				sum = &dayCounts{}
				totals[key] = sum
			}
			sum.upvotes += day.upvotes
			sum.downvotes += day.downvotes
		}
		t.mu.Unlock()
	}

	buckets := make([]model.TrendBucket, 0, len(totals))
	for key, sum := range totals {
		buckets = append(buckets, model.TrendBucket{
			TargetID:  target,
			PeriodKey: key,
			Upvotes:   sum.upvotes,
			Downvotes: sum.downvotes,
			Total:     sum.upvotes + sum.downvotes,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].PeriodKey < buckets[j].PeriodKey
	})
	return buckets, nil
}

// review returns the state for id, or nil if the review does not exist.
func (s *Store) review(id uuid.UUID) *reviewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviews[id]
}

func (s *Store) CreateReview(_ context.Context, review model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[review.ID] = &reviewState{
		review: review,
		flags:  make(map[uuid.UUID]struct{}),
	}
	return nil
}

func (s *Store) GetReview(_ context.Context, id uuid.UUID) (model.Review, error) {
	r := s.review(id)
	if r == nil {
		return model.Review{}, store.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.review, nil
}

func (s *Store) ListOfficeReviews(_ context.Context, officeID uuid.UUID) ([]model.Review, error) {
	s.mu.RLock()
	states := make([]*reviewState, 0, len(s.reviews))
	for _, r := range s.reviews {
		states = append(states, r)
	}
	s.mu.RUnlock()

	var reviews []model.Review
	for _, r := range states {
		r.mu.Lock()
		if r.review.OfficeID == officeID {
			reviews = append(reviews, r.review)
		}
		r.mu.Unlock()
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

func (s *Store) UpdateReview(_ context.Context, review model.Review, expectStatus model.ReviewStatus) error {
	r := s.review(review.ID)
	if r == nil {
		return store.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.review.Status != expectStatus {
		return store.ErrConflict
	}
	r.review = review
	return nil
}

func (s *Store) FlagReview(_ context.Context, userID uuid.UUID, review model.Review, expectStatus model.ReviewStatus, expectFlagCount int) error {
	r := s.review(review.ID)
	if r == nil {
		return store.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, flagged := r.flags[userID]; flagged {
		return store.ErrAlreadyFlagged
	}
	if r.review.Status != expectStatus || r.review.FlagCount != expectFlagCount {
		return store.ErrConflict
	}
	r.flags[userID] = struct{}{}
	r.review = review
	return nil
}

func (s *Store) HasFlagged(_ context.Context, userID, reviewID uuid.UUID) (bool, error) {
	r := s.review(reviewID)
	if r == nil {
		return false, store.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, flagged := r.flags[userID]
	return flagged, nil
}

func (s *Store) AddReply(_ context.Context, reply model.Reply) error {
	r := s.review(reply.ReviewID)
	if r == nil {
		return store.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-checked under the review lock so a concurrent rejection cannot
	// slip a reply onto rejected content.
	if r.review.Status == model.ReviewRejected {
		return store.ErrConflict
	}
	r.replies = append(r.replies, reply)
	return nil
}

func (s *Store) ListReplies(_ context.Context, reviewID uuid.UUID) ([]model.Reply, error) {
	r := s.review(reviewID)
	if r == nil {
		return nil, store.ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	replies := make([]model.Reply, len(r.replies))
	copy(replies, r.replies)
	return replies, nil
}
