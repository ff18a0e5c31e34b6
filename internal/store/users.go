package store

import (
	"context"
	"errors"
	"time"

	"critiq/internal/accesscontrol"
	"critiq/internal/params"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDuplicateEmail    = errors.New("a user with that email already exists")
	ErrDuplicateUsername = errors.New("a user with that username already exists")
)

type User struct {
	ID          int64              `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Bio         string             `json:"bio"`
	Role        accesscontrol.Role `json:"role"`
	IsSuperuser bool               `json:"-"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Identity returns the tuple the capability predicates operate on.
func (u *User) Identity() accesscontrol.Identity {
	return accesscontrol.Identity{Role: u.Role, IsSuperuser: u.IsSuperuser}
}

type UsersStore struct {
	db *pgxpool.Pool
}

func mapUserConstraintErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_username_key":
			return ErrDuplicateUsername
		}
	}
	return err
}

func (s *UsersStore) Create(ctx context.Context, user *User) error {
	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		return s.create(ctx, tx, user)
	})
}

func (s *UsersStore) create(ctx context.Context, tx pgx.Tx, user *User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, bio, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if user.Role == "" {
		user.Role = accesscontrol.RoleUser
	}

	err := tx.QueryRow(
		ctx, query, user.Username, user.Email, user.FirstName, user.LastName, user.Bio, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapUserConstraintErr(err)
	}
	return nil
}

// CreateWithConfirmation creates the user and stores the hash of their
// one-time confirmation code in a single transaction.
func (s *UsersStore) CreateWithConfirmation(ctx context.Context, user *User, codeHash []byte, exp time.Duration) error {
	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		if err := s.create(ctx, tx, user); err != nil {
			return err
		}
		return s.upsertConfirmation(ctx, tx, user.ID, codeHash, exp)
	})
}

// RefreshConfirmation replaces the stored confirmation code hash for an
// existing user, used when the same (email, username) pair signs up again.
func (s *UsersStore) RefreshConfirmation(ctx context.Context, userID int64, codeHash []byte, exp time.Duration) error {
	return withTx(s.db, ctx, func(tx pgx.Tx) error {
		return s.upsertConfirmation(ctx, tx, userID, codeHash, exp)
	})
}

func (s *UsersStore) upsertConfirmation(ctx context.Context, tx pgx.Tx, userID int64, codeHash []byte, exp time.Duration) error {
	query := `
		INSERT INTO user_confirmations (user_id, code_hash, expiry)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET code_hash = EXCLUDED.code_hash, expiry = EXCLUDED.expiry
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := tx.Exec(ctx, query, userID, codeHash, time.Now().Add(exp))
	return err
}

// ConfirmationHash returns the stored code hash for the user, provided it
// has not expired.
func (s *UsersStore) ConfirmationHash(ctx context.Context, userID int64) ([]byte, error) {
	query := `SELECT code_hash FROM user_confirmations WHERE user_id = $1 AND expiry > $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var hash []byte
	err := s.db.QueryRow(ctx, query, userID, time.Now()).Scan(&hash)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}
	return hash, nil
}

const userColumns = `id, username, email, first_name, last_name, bio, role, is_superuser, created_at, updated_at`

func scanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Bio,
		&user.Role,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (s *UsersStore) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	if err := scanUser(s.db.QueryRow(ctx, query, userID), user); err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}
	return user, nil
}

func (s *UsersStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	if err := scanUser(s.db.QueryRow(ctx, query, username), user); err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}
	return user, nil
}

func (s *UsersStore) List(ctx context.Context, p params.Pagination) ([]User, int, error) {
	query := `
		SELECT ` + userColumns + `, COUNT(*) OVER() AS total
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	var total int
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.Bio,
			&user.Role,
			&user.IsSuperuser,
			&user.CreatedAt,
			&user.UpdatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (s *UsersStore) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, first_name = $3, last_name = $4, bio = $5, role = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(
		ctx, query, user.Username, user.Email, user.FirstName, user.LastName, user.Bio, user.Role, user.ID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return ErrNotFound
		default:
			return mapUserConstraintErr(err)
		}
	}
	return nil
}

// Delete removes the user; reviews and comments they authored go with them.
func (s *UsersStore) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM users WHERE username = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := s.db.Exec(ctx, query, username)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
