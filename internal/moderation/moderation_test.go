package moderation

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/civicvoice/civicvoice_api/internal/errors"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/internal/store/memstore"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFlagThreshold = 3

var testStart = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	clock := clockwork.NewFakeClockAt(testStart)
	return New(s, clock, testFlagThreshold), s
}

func createOffice(t *testing.T, s *memstore.Store) uuid.UUID {
	t.Helper()
	office := model.Office{
		ID:        uuid.New(),
		Name:      "Civil Registry",
		Category:  "REGISTRY",
		CreatedAt: testStart,
	}
	require.NoError(t, s.CreateOffice(context.Background(), office))
	return office.ID
}

func createReview(t *testing.T, svc *Service, s *memstore.Store) model.Review {
	t.Helper()
	officeID := createOffice(t, s)
	review, err := svc.CreateReview(context.Background(), uuid.New(), officeID, 2, "Nobody at the counter")
	require.NoError(t, err)
	return review
}

func TestCreateReview(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	officeID := createOffice(t, s)

	review, err := svc.CreateReview(ctx, uuid.New(), officeID, 4, "Fast service")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewPending, review.Status)
	assert.Zero(t, review.FlagCount)
	assert.Equal(t, testStart, review.CreatedAt)

	got, err := svc.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, review, got)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	officeID := createOffice(t, s)

	_, err := svc.CreateReview(ctx, uuid.New(), officeID, 0, "rating too low")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = svc.CreateReview(ctx, uuid.New(), officeID, 6, "rating too high")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = svc.CreateReview(ctx, uuid.New(), uuid.New(), 3, "office does not exist")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestTransitionPaths(t *testing.T) {
	cases := []struct {
		name string
		path []model.ReviewStatus
		ok   bool
	}{
		{"approve pending", []model.ReviewStatus{model.ReviewApproved}, true},
		{"reject pending", []model.ReviewStatus{model.ReviewRejected}, true},
		{"flag then resolve", []model.ReviewStatus{model.ReviewFlagged, model.ReviewResolved}, true},
		{"approve flagged", []model.ReviewStatus{model.ReviewFlagged, model.ReviewApproved}, true},
		{"re-flag approved", []model.ReviewStatus{model.ReviewApproved, model.ReviewFlagged}, true},
		{"resolve pending", []model.ReviewStatus{model.ReviewResolved}, false},
		{"approve rejected", []model.ReviewStatus{model.ReviewRejected, model.ReviewApproved}, false},
		{"reopen resolved", []model.ReviewStatus{model.ReviewFlagged, model.ReviewResolved, model.ReviewPending}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, s := newTestService(t)
			review := createReview(t, svc, s)

			var err error
			for _, to := range tc.path {
				_, err = svc.Transition(context.Background(), review.ID, to)
				if err != nil {
					break
				}
			}
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
			}
		})
	}
}

func TestTransitionSameStatusIsIdempotent(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	review := createReview(t, svc, s)

	first, err := svc.Transition(ctx, review.ID, model.ReviewApproved)
	require.NoError(t, err)

	second, err := svc.Transition(ctx, review.ID, model.ReviewApproved)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestTransitionUnknownStatus(t *testing.T) {
	svc, s := newTestService(t)
	review := createReview(t, svc, s)

	_, err := svc.Transition(context.Background(), review.ID, model.ReviewStatus("archived"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestTransitionMissingReview(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Transition(context.Background(), uuid.New(), model.ReviewApproved)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestFlagEscalatesAtThreshold(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	review := createReview(t, svc, s)

	for i := 1; i < testFlagThreshold; i++ {
		got, err := svc.Flag(ctx, review.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, i, got.FlagCount)
		assert.Equal(t, model.ReviewPending, got.Status)
	}

	got, err := svc.Flag(ctx, review.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, testFlagThreshold, got.FlagCount)
	assert.Equal(t, model.ReviewFlagged, got.Status)
}

func TestFlagSameUserIsIdempotent(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	review := createReview(t, svc, s)
	user := uuid.New()

	first, err := svc.Flag(ctx, review.ID, user)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FlagCount)

	second, err := svc.Flag(ctx, review.ID, user)
	require.NoError(t, err)
	assert.Equal(t, 1, second.FlagCount)
	assert.Equal(t, first.Status, second.Status)
}

func TestFlagEscalatesApprovedReview(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	review := createReview(t, svc, s)

	_, err := svc.Transition(ctx, review.ID, model.ReviewApproved)
	require.NoError(t, err)

	for i := 0; i < testFlagThreshold; i++ {
		_, err = svc.Flag(ctx, review.ID, uuid.New())
		require.NoError(t, err)
	}

	got, err := svc.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewFlagged, got.Status)
}

func TestFlagOnTerminalReviewKeepsStatus(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	review := createReview(t, svc, s)

	_, err := svc.Transition(ctx, review.ID, model.ReviewRejected)
	require.NoError(t, err)

	for i := 0; i < testFlagThreshold+1; i++ {
		got, err := svc.Flag(ctx, review.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, model.ReviewRejected, got.Status)
	}
}

func TestModerationScenario(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	review := createReview(t, svc, s)

	// Three distinct flaggers push the review over the threshold.
	for i := 0; i < testFlagThreshold; i++ {
		_, err := svc.Flag(ctx, review.ID, uuid.New())
		require.NoError(t, err)
	}
	got, err := svc.GetReview(ctx, review.ID)
	require.NoError(t, err)
	require.Equal(t, model.ReviewFlagged, got.Status)

	// A moderator rejects it; replies are then refused.
	_, err = svc.Transition(ctx, review.ID, model.ReviewRejected)
	require.NoError(t, err)

	_, err = svc.AddReply(ctx, review.ID, uuid.New(), "official", "We looked into this.")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))

	// Rejected is terminal.
	_, err = svc.Transition(ctx, review.ID, model.ReviewApproved)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidTransition))
}
