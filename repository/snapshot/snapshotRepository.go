package snapshotrepo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"booklend/model"
)

// Repo is the append-only store for availability audit records. There is
// no update or delete on purpose.
type Repo interface {
	Insert(ctx context.Context, s *model.RentalSnapshot) error
	ListByBook(ctx context.Context, bookID string) ([]model.RentalSnapshot, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, s *model.RentalSnapshot) error {
	const q = `
INSERT INTO rental_snapshots (book_id, user_id, rented_at, availability_at_rent)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q, s.BookID, s.UserID, s.RentedAt, s.AvailabilityAtRent).
		Scan(&s.ID, &s.CreatedAt)
}

func (r *repo) ListByBook(ctx context.Context, bookID string) ([]model.RentalSnapshot, error) {
	const q = `
SELECT id, book_id, user_id, rented_at, availability_at_rent, created_at
FROM rental_snapshots
WHERE book_id = $1
ORDER BY created_at DESC`
	var out []model.RentalSnapshot
	if err := r.db.SelectContext(ctx, &out, q, bookID); err != nil {
		return nil, err
	}
	return out, nil
}
