// repository/rental/rentalRepository.go
package rentalrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"booklend/model"
)

var dialect = goqu.Dialect("postgres")

// HistoryRow is a rental joined with its book for the user view.
type HistoryRow struct {
	RentalID   string             `db:"rental_id" json:"rental_id"`
	BookID     string             `db:"book_id" json:"book_id"`
	BookTitle  string             `db:"book_title" json:"book_title"`
	BookAuthor string             `db:"book_author" json:"book_author"`
	Status     model.RentalStatus `db:"status" json:"status"`
	RentedAt   time.Time          `db:"rented_at" json:"rented_at"`
	ReturnedAt *time.Time         `db:"returned_at" json:"returned_at,omitempty"`
}

// AdminRow adds borrower display data for the privileged listing.
type AdminRow struct {
	HistoryRow
	UserID    string `db:"user_id" json:"user_id"`
	UserName  string `db:"user_name" json:"user_name"`
	UserEmail string `db:"user_email" json:"user_email"`
}

// Tx is the mutation surface available inside one rental transaction.
// Inventory and loan writes commit or roll back together.
type Tx interface {
	// DecrementIfAvailable is the authoritative availability guard: the
	// decrement only happens while available_quantity > 0, and the
	// condition is evaluated at mutation time by the store itself.
	DecrementIfAvailable(ctx context.Context, bookID string) (bool, error)
	IncrementAvailability(ctx context.Context, bookID string) error
	InsertRental(ctx context.Context, r *model.Rental) error
	// RentalForUpdate locks the loan row; nil, nil when absent.
	RentalForUpdate(ctx context.Context, rentalID string) (*model.Rental, error)
	// MarkReturned flips RENTED -> RETURNED; false when the row already
	// left RENTED, so the first concurrent return wins.
	MarkReturned(ctx context.Context, rentalID string, at time.Time) (bool, error)
}

type Repo interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	BookByID(ctx context.Context, bookID string) (*model.Book, error)
	RentalByID(ctx context.Context, rentalID string) (*model.Rental, error)
	ListByUser(ctx context.Context, userID string) ([]HistoryRow, error)
	ListAll(ctx context.Context) ([]AdminRow, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

// InTx runs fn inside a single database transaction; fn returning an
// error rolls everything back.
func (r *repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&txRepo{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *repo) BookByID(ctx context.Context, bookID string) (*model.Book, error) {
	const q = `
SELECT id, title, author, available_quantity
FROM books
WHERE id = $1`
	var b model.Book
	if err := r.db.GetContext(ctx, &b, q, bookID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *repo) RentalByID(ctx context.Context, rentalID string) (*model.Rental, error) {
	const q = `
SELECT id, book_id, user_id, status, rented_at, returned_at
FROM rentals
WHERE id = $1`
	var rt model.Rental
	if err := r.db.GetContext(ctx, &rt, q, rentalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]HistoryRow, error) {
	query, args, err := historyDS().
		Where(goqu.I("r.user_id").Eq(userID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}
	var out []HistoryRow
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) ListAll(ctx context.Context) ([]AdminRow, error) {
	query, args, err := historyDS().
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.user_id")))).
		SelectAppend(
			goqu.I("r.user_id").As("user_id"),
			goqu.I("u.name").As("user_name"),
			goqu.I("u.email").As("user_email"),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}
	var out []AdminRow
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func historyDS() *goqu.SelectDataset {
	return dialect.
		From(goqu.T("rentals").As("r")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("r.book_id")))).
		Select(
			goqu.I("r.id").As("rental_id"),
			goqu.I("r.book_id").As("book_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("b.author").As("book_author"),
			goqu.I("r.status").As("status"),
			goqu.I("r.rented_at").As("rented_at"),
			goqu.I("r.returned_at").As("returned_at"),
		).
		Order(goqu.I("r.rented_at").Desc(), goqu.I("r.id").Desc())
}

// ---- transaction-scoped implementation ----

type txRepo struct{ tx *sqlx.Tx }

func (t *txRepo) DecrementIfAvailable(ctx context.Context, bookID string) (bool, error) {
	const q = `
UPDATE books
SET available_quantity = available_quantity - 1
WHERE id = $1
  AND available_quantity > 0`
	res, err := t.tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

func (t *txRepo) IncrementAvailability(ctx context.Context, bookID string) error {
	const q = `
UPDATE books
SET available_quantity = available_quantity + 1
WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, bookID)
	return err
}

func (t *txRepo) InsertRental(ctx context.Context, r *model.Rental) error {
	const q = `
INSERT INTO rentals (id, book_id, user_id, status, rented_at)
VALUES ($1,$2,$3,$4,$5)`
	_, err := t.tx.ExecContext(ctx, q, r.ID, r.BookID, r.UserID, r.Status, r.RentedAt)
	return err
}

func (t *txRepo) RentalForUpdate(ctx context.Context, rentalID string) (*model.Rental, error) {
	const q = `
SELECT id, book_id, user_id, status, rented_at, returned_at
FROM rentals
WHERE id = $1
FOR UPDATE`
	var rt model.Rental
	if err := t.tx.GetContext(ctx, &rt, q, rentalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

func (t *txRepo) MarkReturned(ctx context.Context, rentalID string, at time.Time) (bool, error) {
	const q = `
UPDATE rentals
SET status = 'RETURNED',
    returned_at = $2
WHERE id = $1
  AND status = 'RENTED'`
	res, err := t.tx.ExecContext(ctx, q, rentalID, at)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}
