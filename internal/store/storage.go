package store

import (
	"context"
	"errors"
	"time"

	"critiq/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Create(context.Context, *User) error
		CreateWithConfirmation(ctx context.Context, user *User, codeHash []byte, exp time.Duration) error
		RefreshConfirmation(ctx context.Context, userID int64, codeHash []byte, exp time.Duration) error
		ConfirmationHash(ctx context.Context, userID int64) ([]byte, error)
		GetByID(context.Context, int64) (*User, error)
		GetByUsername(context.Context, string) (*User, error)
		List(ctx context.Context, p params.Pagination) ([]User, int, error)
		Update(context.Context, *User) error
		Delete(ctx context.Context, username string) error
	}
	Categories interface {
		Create(context.Context, *Category) error
		GetBySlug(context.Context, string) (*Category, error)
		List(ctx context.Context, search string, p params.Pagination) ([]Category, int, error)
		Delete(ctx context.Context, slug string) error
	}
	Genres interface {
		Create(context.Context, *Genre) error
		GetBySlug(context.Context, string) (*Genre, error)
		List(ctx context.Context, search string, p params.Pagination) ([]Genre, int, error)
		Delete(ctx context.Context, slug string) error
	}
	Titles interface {
		Create(context.Context, *Title) error
		GetByID(context.Context, int64) (*Title, error)
		List(ctx context.Context, q TitleFilterQuery, p params.Pagination) ([]Title, int, error)
		Update(context.Context, *Title) error
		Delete(ctx context.Context, titleID int64) error
	}
	Reviews interface {
		Create(context.Context, *Review) error
		GetByID(ctx context.Context, titleID, reviewID int64) (*Review, error)
		ListByTitle(ctx context.Context, titleID int64, p params.Pagination) ([]Review, int, error)
		HasReview(ctx context.Context, titleID, authorID int64) (bool, error)
		Update(context.Context, *Review) error
		Delete(ctx context.Context, titleID, reviewID int64) error
	}
	Comments interface {
		Create(context.Context, *Comment) error
		GetByID(ctx context.Context, reviewID, commentID int64) (*Comment, error)
		ListByReview(ctx context.Context, reviewID int64, p params.Pagination) ([]Comment, int, error)
		Update(context.Context, *Comment) error
		Delete(ctx context.Context, reviewID, commentID int64) error
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:      &UsersStore{db},
		Categories: &CategoriesStore{db},
		Genres:     &GenresStore{db},
		Titles:     &TitlesStore{db},
		Reviews:    &ReviewsStore{db},
		Comments:   &CommentsStore{db},
	}
}

func withTx(db *pgxpool.Pool, ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
