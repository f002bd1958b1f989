// Package pgstore is the Postgres implementation of the store boundary.
// Multi-row mutations run inside a transaction; preconditions are enforced
// with conditional writes so concurrent mutations fail with ErrConflict
// instead of clobbering each other.
package pgstore

import (
	"context"
	"errors"

	"github.com/civicvoice/civicvoice_api/internal/db"
	"github.com/civicvoice/civicvoice_api/internal/model"
	"github.com/civicvoice/civicvoice_api/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Store struct {
	DB *db.DB
}

var _ store.Store = (*Store)(nil)

func New(database *db.DB) *Store {
	return &Store{DB: database}
}

func (s *Store) CreateOffice(ctx context.Context, office model.Office) error {
	query := `
        INSERT INTO offices (id, name, category, address, latitude, longitude, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := s.DB.Pool().Exec(ctx, query,
		office.ID, office.Name, office.Category, office.Address,
		office.Latitude, office.Longitude, office.CreatedAt,
	)
	return err
}

func (s *Store) GetOffice(ctx context.Context, id uuid.UUID) (model.Office, error) {
	query := `
        SELECT id, name, category, address, latitude, longitude, created_at
        FROM offices
        WHERE id = $1
    `
	var office model.Office
	err := s.DB.Pool().QueryRow(ctx, query, id).Scan(
		&office.ID, &office.Name, &office.Category, &office.Address,
		&office.Latitude, &office.Longitude, &office.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Office{}, store.ErrNotFound
	}
	return office, err
}

func (s *Store) ListOffices(ctx context.Context, category string) ([]model.Office, error) {
	query := `
        SELECT id, name, category, address, latitude, longitude, created_at
        FROM offices
        WHERE ($1 = '' OR category = $1)
        ORDER BY created_at DESC
    `
	rows, err := s.DB.Pool().Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offices []model.Office
	for rows.Next() {
		var office model.Office
		err := rows.Scan(
			&office.ID, &office.Name, &office.Category, &office.Address,
			&office.Latitude, &office.Longitude, &office.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		offices = append(offices, office)
	}
	return offices, rows.Err()
}

func (s *Store) GetVote(ctx context.Context, userID, targetID uuid.UUID) (model.Vote, error) {
	query := `
        SELECT id, user_id, target_id, target_type, vote_type, created_at, updated_at
        FROM votes
        WHERE user_id = $1 AND target_id = $2
    `
	var vote model.Vote
	err := s.DB.Pool().QueryRow(ctx, query, userID, targetID).Scan(
		&vote.ID, &vote.UserID, &vote.TargetID, &vote.TargetType,
		&vote.VoteType, &vote.CreatedAt, &vote.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Vote{}, store.ErrNotFound
	}
	return vote, err
}

func (s *Store) ListVotes(ctx context.Context, targetID uuid.UUID) ([]model.Vote, error) {
	query := `
        SELECT id, user_id, target_id, target_type, vote_type, created_at, updated_at
        FROM votes
        WHERE target_id = $1
        ORDER BY created_at
    `
	rows, err := s.DB.Pool().Query(ctx, query, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []model.Vote
	for rows.Next() {
		var vote model.Vote
		err := rows.Scan(
			&vote.ID, &vote.UserID, &vote.TargetID, &vote.TargetType,
			&vote.VoteType, &vote.CreatedAt, &vote.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	return votes, rows.Err()
}

func (s *Store) GetAggregate(ctx context.Context, targetID uuid.UUID) (model.VoteAggregate, error) {
	query := `
        SELECT upvotes, downvotes
        FROM vote_aggregates
        WHERE target_id = $1
    `
	agg := model.VoteAggregate{TargetID: targetID}
	err := s.DB.Pool().QueryRow(ctx, query, targetID).Scan(&agg.Upvotes, &agg.Downvotes)
	if errors.Is(err, pgx.ErrNoRows) {
		return agg, nil
	}
	if err != nil {
		return model.VoteAggregate{}, err
	}
	agg.Total = agg.Upvotes + agg.Downvotes
	agg.Ratio = model.Ratio(agg.Upvotes, agg.Total)
	return agg, nil
}

func (s *Store) ApplyVote(ctx context.Context, m store.VoteMutation) (model.VoteAggregate, error) {
	agg := model.VoteAggregate{TargetID: m.TargetID}

	err := s.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := applyVoteRow(ctx, tx, m); err != nil {
			return err
		}

		aggQuery := `
            INSERT INTO vote_aggregates (target_id, upvotes, downvotes)
            VALUES ($1, $2, $3)
            ON CONFLICT (target_id) DO UPDATE SET
                upvotes = vote_aggregates.upvotes + EXCLUDED.upvotes,
                downvotes = vote_aggregates.downvotes + EXCLUDED.downvotes
            RETURNING upvotes, downvotes
        `
		err := tx.QueryRow(ctx, aggQuery, m.TargetID, m.Delta.Upvotes, m.Delta.Downvotes).
			Scan(&agg.Upvotes, &agg.Downvotes)
		if err != nil {
			return err
		}

		bucketQuery := `
            INSERT INTO vote_trends_daily (target_id, day_key, upvotes, downvotes)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (target_id, day_key) DO UPDATE SET
                upvotes = vote_trends_daily.upvotes + EXCLUDED.upvotes,
                downvotes = vote_trends_daily.downvotes + EXCLUDED.downvotes
        `
		_, err = tx.Exec(ctx, bucketQuery, m.TargetID, m.DayKey, m.Delta.Upvotes, m.Delta.Downvotes)
		return err
	})
	if err != nil {
		return model.VoteAggregate{}, err
	}

	agg.Total = agg.Upvotes + agg.Downvotes
	agg.Ratio = model.Ratio(agg.Upvotes, agg.Total)
	return agg, nil
}

func applyVoteRow(ctx context.Context, tx pgx.Tx, m store.VoteMutation) error {
	switch m.Op {
	case store.OpInsert:
		query := `
            INSERT INTO votes (id, user_id, target_id, target_type, vote_type, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $6)
            ON CONFLICT (user_id, target_id) DO NOTHING
        `
		result, err := tx.Exec(ctx, query, uuid.New(), m.UserID, m.TargetID, m.TargetType, m.VoteType, m.At)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return store.ErrConflict
		}
	case store.OpDelete:
		query := `
            DELETE FROM votes
            WHERE user_id = $1 AND target_id = $2 AND vote_type = $3
        `
		result, err := tx.Exec(ctx, query, m.UserID, m.TargetID, m.PrevType)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return store.ErrConflict
		}
	case store.OpSwitch:
		query := `
            UPDATE votes
            SET vote_type = $1, updated_at = $2
            WHERE user_id = $3 AND target_id = $4 AND vote_type = $5
        `
		result, err := tx.Exec(ctx, query, m.VoteType, m.At, m.UserID, m.TargetID, m.PrevType)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return store.ErrConflict
		}
	}
	return nil
}

func (s *Store) PutAggregate(ctx context.Context, agg model.VoteAggregate) error {
	query := `
        INSERT INTO vote_aggregates (target_id, upvotes, downvotes)
        VALUES ($1, $2, $3)
        ON CONFLICT (target_id) DO UPDATE SET
            upvotes = EXCLUDED.upvotes,
            downvotes = EXCLUDED.downvotes
    `
	_, err := s.DB.Pool().Exec(ctx, query, agg.TargetID, agg.Upvotes, agg.Downvotes)
	return err
}

func (s *Store) ListDailyBuckets(ctx context.Context, target *uuid.UUID, fromKey, toKey string) ([]model.TrendBucket, error) {
	query := `
        SELECT day_key, SUM(upvotes), SUM(downvotes)
        FROM vote_trends_daily
        WHERE day_key BETWEEN $1 AND $2
        AND ($3::uuid IS NULL OR target_id = $3)
        GROUP BY day_key
        ORDER BY day_key
    `
	rows, err := s.DB.Pool().Query(ctx, query, fromKey, toKey, target)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []model.TrendBucket
	for rows.Next() {
		bucket := model.TrendBucket{TargetID: target}
		if err := rows.Scan(&bucket.PeriodKey, &bucket.Upvotes, &bucket.Downvotes); err != nil {
			return nil, err
		}
		bucket.Total = bucket.Upvotes + bucket.Downvotes
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

func (s *Store) CreateReview(ctx context.Context, review model.Review) error {
	query := `
        INSERT INTO reviews (id, author_id, office_id, rating, comment, status, flag_count, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := s.DB.Pool().Exec(ctx, query,
		review.ID, review.AuthorID, review.OfficeID, review.Rating, review.Comment,
		review.Status, review.FlagCount, review.CreatedAt, review.UpdatedAt,
	)
	return err
}

func (s *Store) GetReview(ctx context.Context, id uuid.UUID) (model.Review, error) {
	query := `
        SELECT id, author_id, office_id, rating, comment, status, flag_count, created_at, updated_at
        FROM reviews
        WHERE id = $1
    `
	var review model.Review
	err := s.DB.Pool().QueryRow(ctx, query, id).Scan(
		&review.ID, &review.AuthorID, &review.OfficeID, &review.Rating, &review.Comment,
		&review.Status, &review.FlagCount, &review.CreatedAt, &review.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Review{}, store.ErrNotFound
	}
	return review, err
}

func (s *Store) ListOfficeReviews(ctx context.Context, officeID uuid.UUID) ([]model.Review, error) {
	query := `
        SELECT id, author_id, office_id, rating, comment, status, flag_count, created_at, updated_at
        FROM reviews
        WHERE office_id = $1
        ORDER BY created_at DESC
    `
	rows, err := s.DB.Pool().Query(ctx, query, officeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var review model.Review
		err := rows.Scan(
			&review.ID, &review.AuthorID, &review.OfficeID, &review.Rating, &review.Comment,
			&review.Status, &review.FlagCount, &review.CreatedAt, &review.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (s *Store) UpdateReview(ctx context.Context, review model.Review, expectStatus model.ReviewStatus) error {
	query := `
        UPDATE reviews
        SET status = $1, flag_count = $2, updated_at = $3
        WHERE id = $4 AND status = $5
    `
	result, err := s.DB.Pool().Exec(ctx, query,
		review.Status, review.FlagCount, review.UpdatedAt, review.ID, expectStatus,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		if _, err := s.GetReview(ctx, review.ID); errors.Is(err, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return store.ErrConflict
	}
	return nil
}

func (s *Store) FlagReview(ctx context.Context, userID uuid.UUID, review model.Review, expectStatus model.ReviewStatus, expectFlagCount int) error {
	return s.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		flagQuery := `
            INSERT INTO review_flags (review_id, user_id, created_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (review_id, user_id) DO NOTHING
        `
		result, err := tx.Exec(ctx, flagQuery, review.ID, userID, review.UpdatedAt)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return store.ErrAlreadyFlagged
		}

		updateQuery := `
            UPDATE reviews
            SET status = $1, flag_count = $2, updated_at = $3
            WHERE id = $4 AND status = $5 AND flag_count = $6
        `
		result, err = tx.Exec(ctx, updateQuery,
			review.Status, review.FlagCount, review.UpdatedAt,
			review.ID, expectStatus, expectFlagCount,
		)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return store.ErrConflict
		}
		return nil
	})
}

func (s *Store) HasFlagged(ctx context.Context, userID, reviewID uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM review_flags WHERE review_id = $1 AND user_id = $2
        )
    `
	var flagged bool
	err := s.DB.Pool().QueryRow(ctx, query, reviewID, userID).Scan(&flagged)
	return flagged, err
}

func (s *Store) AddReply(ctx context.Context, reply model.Reply) error {
	query := `
        INSERT INTO replies (id, review_id, author_id, author_role, content, is_official, created_at)
        SELECT $1, $2, $3, $4, $5, $6, $7
        WHERE EXISTS (
            SELECT 1 FROM reviews WHERE id = $2 AND status <> 'rejected'
        )
    `
	result, err := s.DB.Pool().Exec(ctx, query,
		reply.ID, reply.ReviewID, reply.AuthorID, reply.AuthorRole,
		reply.Content, reply.IsOfficial, reply.CreatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return store.ErrConflict
	}
	return nil
}

func (s *Store) ListReplies(ctx context.Context, reviewID uuid.UUID) ([]model.Reply, error) {
	query := `
        SELECT id, review_id, author_id, author_role, content, is_official, created_at
        FROM replies
        WHERE review_id = $1
        ORDER BY created_at
    `
	rows, err := s.DB.Pool().Query(ctx, query, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replies []model.Reply
	for rows.Next() {
		var reply model.Reply
		err := rows.Scan(
			&reply.ID, &reply.ReviewID, &reply.AuthorID, &reply.AuthorRole,
			&reply.Content, &reply.IsOfficial, &reply.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}
