package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mfarhadi/parkwise/internal/model"
	"github.com/mfarhadi/parkwise/internal/utils"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user and returns its ID. Duplicate username or email
// surfaces as ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, username, email, phone, password, role string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, phone, role) VALUES (?,?,?,?,?)",
		username, email, hash, phone, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by login name.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,phone,role,created_at FROM users WHERE username=? LIMIT 1",
		strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id,username,email,password_hash,phone,role,created_at FROM users WHERE id=? LIMIT 1",
		id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// EnsureAdmin creates the bootstrap admin account if no admin exists yet.
// It is called once at startup and is a no-op on every later run.
func (r *UserRepo) EnsureAdmin(ctx context.Context, username, email, password string, cost int) error {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE role=? LIMIT 1", model.RoleAdmin).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	_, err = r.Create(ctx, username, email, "", password, model.RoleAdmin, cost)
	return err
}

// UserSummary is returned by the admin user directory. It pairs account
// data with the user's lifetime reservation count.
type UserSummary struct {
	ID                uint64    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	CreatedAt         time.Time `json:"created_at"`
	TotalReservations int       `json:"total_reservations"`
}

// ListWithReservationCounts returns all non-admin users together with how
// many reservations each has ever made, ordered by id.
func (r *UserRepo) ListWithReservationCounts(ctx context.Context) ([]UserSummary, error) {
	const q = `SELECT u.id, u.username, u.email, u.phone, u.created_at, COUNT(r.id)
               FROM users u
               LEFT JOIN reservations r ON r.user_id = u.id
               WHERE u.role = 'user'
               GROUP BY u.id, u.username, u.email, u.phone, u.created_at
               ORDER BY u.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserSummary, 0)
	for rows.Next() {
		var s UserSummary
		if err := rows.Scan(&s.ID, &s.Username, &s.Email, &s.Phone, &s.CreatedAt, &s.TotalReservations); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
