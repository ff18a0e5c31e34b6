package store

import (
	"context"
	"errors"

	"critiq/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CategoriesStore struct {
	db *pgxpool.Pool
}

func (s *CategoriesStore) Create(ctx context.Context, category *Category) error {
	query := `INSERT INTO categories (name, slug) VALUES ($1, $2) RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query, category.Name, category.Slug).Scan(&category.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *CategoriesStore) GetBySlug(ctx context.Context, slug string) (*Category, error) {
	query := `SELECT id, name, slug FROM categories WHERE slug = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	category := &Category{}
	err := s.db.QueryRow(ctx, query, slug).Scan(&category.ID, &category.Name, &category.Slug)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}
	return category, nil
}

func (s *CategoriesStore) List(ctx context.Context, search string, p params.Pagination) ([]Category, int, error) {
	query := `
		SELECT id, name, slug, COUNT(*) OVER() AS total
		FROM categories
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, search, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var categories []Category
	var total int
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &total); err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

// Delete removes the category. Titles referencing it survive with a null
// category, enforced by ON DELETE SET NULL.
func (s *CategoriesStore) Delete(ctx context.Context, slug string) error {
	query := `DELETE FROM categories WHERE slug = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, slug)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
