package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Haudass/westride/internal/model"
	"github.com/Haudass/westride/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID. The password is hashed with
// bcrypt before storage; the role must already be validated by the caller.
func (r *UserRepo) Create(ctx context.Context, name, email, password, phone, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, phone, role) VALUES (?,?,?,?,?)",
		name, email, hash, phone, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,phone,role,created_at,updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,phone,role,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// UpdateProfile updates the mutable profile fields (name and phone) and
// returns the fresh row. Email and role are immutable after registration.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, phone string) (model.User, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, phone=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		name, phone, id)
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, id)
}
