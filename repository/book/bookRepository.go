package bookrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"

	"booklend/model"
)

var dialect = goqu.Dialect("postgres")

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context, search string) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (id, title, author, available_quantity)
VALUES ($1,$2,$3,$4)`
	_, err := r.db.ExecContext(ctx, q, b.ID, b.Title, b.Author, b.AvailableQuantity)
	return err
}

func (r *repo) ByID(ctx context.Context, id string) (*model.Book, error) {
	const q = `
SELECT id, title, author, available_quantity
FROM books
WHERE id = $1`
	var b model.Book
	if err := r.db.GetContext(ctx, &b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *repo) List(ctx context.Context, search string) ([]model.Book, error) {
	ds := dialect.
		From("books").
		Select("id", "title", "author", "available_quantity").
		Order(goqu.C("title").Asc())
	if search != "" {
		pattern := "%" + search + "%"
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
		))
	}
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var out []model.Book
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) Update(ctx context.Context, b *model.Book) (bool, error) {
	const q = `
UPDATE books
SET title = $2,
    author = $3,
    available_quantity = $4
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, b.ID, b.Title, b.Author, b.AvailableQuantity)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

func (r *repo) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM books WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}
