package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"booklend/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users(id, name, email, password_hash, role)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
        SELECT id, name, email, password_hash, role, created_at
        FROM users
        WHERE lower(email) = lower($1)`
	var u model.User
	if err := r.db.GetContext(ctx, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *repo) ByID(ctx context.Context, id string) (*model.User, error) {
	const q = `
        SELECT id, name, email, password_hash, role, created_at
        FROM users
        WHERE id = $1`
	var u model.User
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *repo) List(ctx context.Context) ([]model.User, error) {
	const q = `
        SELECT id, name, email, password_hash, role, created_at
        FROM users
        ORDER BY created_at DESC`
	var out []model.User
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) Update(ctx context.Context, u *model.User) (bool, error) {
	const q = `
UPDATE users
SET name = $2,
    email = $3,
    role = $4
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.Role)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

func (r *repo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM users WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}
