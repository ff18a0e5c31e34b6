package store

import (
	"context"
	"errors"
	"time"

	"critiq/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateReview covers both the advisory pre-check and the
// reviews_author_title_key unique constraint, which is the authority of last
// resort when two creates race.
var ErrDuplicateReview = errors.New("you have already reviewed this title")

type Review struct {
	ID        int64     `json:"id"`
	TitleID   int64     `json:"title_id"`
	AuthorID  int64     `json:"author_id"`
	Score     int       `json:"score"` // 1-10
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined field
	AuthorUsername string `json:"author,omitempty"`
}

type ReviewsStore struct {
	db *pgxpool.Pool
}

func (s *ReviewsStore) Create(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (title_id, author_id, score, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query, review.TitleID, review.AuthorID, review.Score, review.Text,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == "23505" && pgErr.ConstraintName == "reviews_author_title_key":
				return ErrDuplicateReview
			case pgErr.Code == "23503":
				return ErrNotFound
			}
		}
		return err
	}
	return nil
}

// HasReview reports whether the author already holds a review on the title.
// Advisory only; the unique constraint decides under concurrency.
func (s *ReviewsStore) HasReview(ctx context.Context, titleID, authorID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reviews WHERE title_id = $1 AND author_id = $2
		)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx, query, titleID, authorID).Scan(&exists)
	return exists, err
}

// GetByID resolves a review strictly under its claimed title. A review that
// exists under a different title is not found, not a mismatch.
func (s *ReviewsStore) GetByID(ctx context.Context, titleID, reviewID int64) (*Review, error) {
	query := `
		SELECT r.id, r.title_id, r.author_id, r.score, r.text, r.created_at, r.updated_at, u.username
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = $1 AND r.title_id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	review := &Review{}
	err := s.db.QueryRow(ctx, query, reviewID, titleID).Scan(
		&review.ID,
		&review.TitleID,
		&review.AuthorID,
		&review.Score,
		&review.Text,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.AuthorUsername,
	)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}
	return review, nil
}

func (s *ReviewsStore) ListByTitle(ctx context.Context, titleID int64, p params.Pagination) ([]Review, int, error) {
	query := `
		SELECT r.id, r.title_id, r.author_id, r.score, r.text, r.created_at, r.updated_at, u.username,
		       COUNT(*) OVER() AS total
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		WHERE r.title_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, titleID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reviews []Review
	var total int
	for rows.Next() {
		var review Review
		err := rows.Scan(
			&review.ID,
			&review.TitleID,
			&review.AuthorID,
			&review.Score,
			&review.Text,
			&review.CreatedAt,
			&review.UpdatedAt,
			&review.AuthorUsername,
			&total,
		)
		if err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, review)
	}
	return reviews, total, rows.Err()
}

func (s *ReviewsStore) Update(ctx context.Context, review *Review) error {
	query := `
		UPDATE reviews
		SET score = $1, text = $2, updated_at = NOW()
		WHERE id = $3 AND title_id = $4
		RETURNING updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query, review.Score, review.Text, review.ID, review.TitleID,
	).Scan(&review.UpdatedAt)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return ErrNotFound
		default:
			return err
		}
	}
	return nil
}

// Delete removes the review and, through the cascade, its comments.
func (s *ReviewsStore) Delete(ctx context.Context, titleID, reviewID int64) error {
	query := `DELETE FROM reviews WHERE id = $1 AND title_id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, reviewID, titleID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
