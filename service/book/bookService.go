package booksvc

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"booklend/model"
)

var (
	ErrNotFound = errors.New("book not found")
	ErrBadInput = errors.New("invalid payload")
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context, search string) ([]model.Book, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Service interface {
	Create(ctx context.Context, title, author string, quantity int64) (*model.Book, error)
	List(ctx context.Context, search string) ([]model.Book, error)
	Detail(ctx context.Context, id string) (*model.Book, error)
	Update(ctx context.Context, id, title, author string, quantity int64) (*model.Book, error)
	Delete(ctx context.Context, id string) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, title, author string, quantity int64) (*model.Book, error) {
	if title == "" || author == "" || quantity < 0 {
		return nil, ErrBadInput
	}
	b := &model.Book{
		ID:                uuid.NewString(),
		Title:             title,
		Author:            author,
		AvailableQuantity: quantity,
	}
	if err := s.r.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context, search string) ([]model.Book, error) {
	return s.r.List(ctx, search)
}

func (s *service) Detail(ctx context.Context, id string) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

// Update is the admin catalog path; it does not race with the rental
// engine in normal operation (separate, non-concurrent path).
func (s *service) Update(ctx context.Context, id, title, author string, quantity int64) (*model.Book, error) {
	if title == "" || author == "" || quantity < 0 {
		return nil, ErrBadInput
	}
	b := &model.Book{ID: id, Title: title, Author: author, AvailableQuantity: quantity}
	ok, err := s.r.Update(ctx, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	ok, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
