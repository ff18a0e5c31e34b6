package store

import (
	"context"
	"math"
	"time"

	"critiq/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Title struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Description *string   `json:"description"`
	Category    *Category `json:"category"`
	Genres      []Genre   `json:"genre"`
	Rating      *float64  `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoundRating rounds a raw score average to one decimal place, half away
// from zero (7.25 -> 7.3). Display value only, never persisted.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

type TitlesStore struct {
	db *pgxpool.Pool
}

func (s *TitlesStore) Create(ctx context.Context, title *Title) error {
	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO titles (name, year, description, category_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`

		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		var categoryID *int64
		if title.Category != nil {
			categoryID = &title.Category.ID
		}

		err := tx.QueryRow(
			ctx, query, title.Name, title.Year, title.Description, categoryID,
		).Scan(&title.ID, &title.CreatedAt, &title.UpdatedAt)
		if err != nil {
			return err
		}

		return s.setGenres(ctx, tx, title.ID, title.Genres)
	})
}

func (s *TitlesStore) setGenres(ctx context.Context, tx pgx.Tx, titleID int64, genres []Genre) error {
	if _, err := tx.Exec(ctx, `DELETE FROM title_genres WHERE title_id = $1`, titleID); err != nil {
		return err
	}
	for _, g := range genres {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO title_genres (title_id, genre_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			titleID, g.ID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// titleSelect computes the rating fresh on every read. The average lives only
// in the row we hand back, never in a column.
const titleSelect = `
	SELECT t.id, t.name, t.year, t.description, t.created_at, t.updated_at,
	       c.id, c.name, c.slug,
	       (SELECT AVG(r.score)::float8 FROM reviews r WHERE r.title_id = t.id) AS avg_score
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
`

func scanTitle(row pgx.Row, title *Title) error {
	var (
		categoryID   *int64
		categoryName *string
		categorySlug *string
		avg          *float64
	)

	err := row.Scan(
		&title.ID, &title.Name, &title.Year, &title.Description,
		&title.CreatedAt, &title.UpdatedAt,
		&categoryID, &categoryName, &categorySlug, &avg,
	)
	if err != nil {
		return err
	}

	if categoryID != nil {
		title.Category = &Category{ID: *categoryID, Name: *categoryName, Slug: *categorySlug}
	}
	if avg != nil {
		rating := RoundRating(*avg)
		title.Rating = &rating
	}
	return nil
}

func (s *TitlesStore) GetByID(ctx context.Context, titleID int64) (*Title, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	title := &Title{}
	err := scanTitle(s.db.QueryRow(ctx, titleSelect+` WHERE t.id = $1`, titleID), title)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	genres, err := s.genresFor(ctx, []int64{title.ID})
	if err != nil {
		return nil, err
	}
	title.Genres = genres[title.ID]
	return title, nil
}

func (s *TitlesStore) List(ctx context.Context, q TitleFilterQuery, p params.Pagination) ([]Title, int, error) {
	query := titleSelect + `
		WHERE ($1 = '' OR c.slug = $1)
		  AND ($2 = '' OR EXISTS (
		        SELECT 1 FROM title_genres tg
		        JOIN genres g ON g.id = tg.genre_id
		        WHERE tg.title_id = t.id AND g.slug = $2))
		  AND ($3 = '' OR t.name ILIKE '%' || $3 || '%')
		  AND ($4 = 0 OR t.year = $4)
		ORDER BY t.year DESC, t.id DESC
		LIMIT $5 OFFSET $6
	`

	// COUNT(*) OVER() does not compose with the correlated rating subquery
	// cheaply, so the total is a second query over the same predicate.
	countQuery := `
		SELECT COUNT(*)
		FROM titles t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ($1 = '' OR c.slug = $1)
		  AND ($2 = '' OR EXISTS (
		        SELECT 1 FROM title_genres tg
		        JOIN genres g ON g.id = tg.genre_id
		        WHERE tg.title_id = t.id AND g.slug = $2))
		  AND ($3 = '' OR t.name ILIKE '%' || $3 || '%')
		  AND ($4 = 0 OR t.year = $4)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var total int
	err := s.db.QueryRow(ctx, countQuery, q.Category, q.Genre, q.Name, q.Year).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(ctx, query, q.Category, q.Genre, q.Name, q.Year, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var titles []Title
	var ids []int64
	for rows.Next() {
		var title Title
		if err := scanTitle(rows, &title); err != nil {
			return nil, 0, err
		}
		titles = append(titles, title)
		ids = append(ids, title.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	genres, err := s.genresFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range titles {
		titles[i].Genres = genres[titles[i].ID]
	}
	return titles, total, nil
}

func (s *TitlesStore) genresFor(ctx context.Context, titleIDs []int64) (map[int64][]Genre, error) {
	if len(titleIDs) == 0 {
		return map[int64][]Genre{}, nil
	}

	query := `
		SELECT tg.title_id, g.id, g.name, g.slug
		FROM title_genres tg
		JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = ANY($1)
		ORDER BY g.name
	`

	rows, err := s.db.Query(ctx, query, titleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	genres := make(map[int64][]Genre)
	for rows.Next() {
		var titleID int64
		var g Genre
		if err := rows.Scan(&titleID, &g.ID, &g.Name, &g.Slug); err != nil {
			return nil, err
		}
		genres[titleID] = append(genres[titleID], g)
	}
	return genres, rows.Err()
}

func (s *TitlesStore) Update(ctx context.Context, title *Title) error {
	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE titles
			SET name = $1, year = $2, description = $3, category_id = $4, updated_at = NOW()
			WHERE id = $5
			RETURNING updated_at
		`

		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		var categoryID *int64
		if title.Category != nil {
			categoryID = &title.Category.ID
		}

		err := tx.QueryRow(
			ctx, query, title.Name, title.Year, title.Description, categoryID, title.ID,
		).Scan(&title.UpdatedAt)
		if err != nil {
			switch err {
			case pgx.ErrNoRows:
				return ErrNotFound
			default:
				return err
			}
		}

		return s.setGenres(ctx, tx, title.ID, title.Genres)
	})
}

// Delete removes the title and, through the cascade, its reviews and their
// comments.
func (s *TitlesStore) Delete(ctx context.Context, titleID int64) error {
	query := `DELETE FROM titles WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, titleID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
