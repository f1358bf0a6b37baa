package usersvc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"booklend/model"
	"booklend/util/hash"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrBadInput = errors.New("invalid payload")
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Service is the admin-only user CRUD; self-service registration lives
// in service/auth.
type Service interface {
	Create(ctx context.Context, name, email, password, role string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Detail(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id, name, email, role string) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, name, email, password, role string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < 6 {
		return nil, ErrBadInput
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, ErrBadInput
	}
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.r.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) List(ctx context.Context) ([]model.User, error) {
	return s.r.List(ctx)
}

func (s *service) Detail(ctx context.Context, id string) (*model.User, error) {
	u, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, id, name, email, role string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, ErrBadInput
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, ErrBadInput
	}
	u := &model.User{ID: id, Name: name, Email: email, Role: role}
	ok, err := s.r.Update(ctx, u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
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
