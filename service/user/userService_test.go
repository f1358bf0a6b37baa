package usersvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"booklend/model"
)

type repoMock struct {
	createFn func(ctx context.Context, u *model.User) error
	byIDFn   func(ctx context.Context, id string) (*model.User, error)
	listFn   func(ctx context.Context) ([]model.User, error)
	updateFn func(ctx context.Context, u *model.User) (bool, error)
	deleteFn func(ctx context.Context, id string) (bool, error)
}

func (m *repoMock) Create(ctx context.Context, u *model.User) error { return m.createFn(ctx, u) }
func (m *repoMock) ByID(ctx context.Context, id string) (*model.User, error) {
	return m.byIDFn(ctx, id)
}
func (m *repoMock) List(ctx context.Context) ([]model.User, error) { return m.listFn(ctx) }
func (m *repoMock) Update(ctx context.Context, u *model.User) (bool, error) {
	return m.updateFn(ctx, u)
}
func (m *repoMock) Delete(ctx context.Context, id string) (bool, error) { return m.deleteFn(ctx, id) }

func TestCreate_HashesAndNormalizes(t *testing.T) {
	var created *model.User
	m := &repoMock{
		createFn: func(ctx context.Context, u *model.User) error {
			created = u
			return nil
		},
	}
	s := New(m)

	u, err := s.Create(context.Background(), "Ada", "ADA@Example.com", "secret123", model.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)
	require.Equal(t, model.RoleAdmin, u.Role)
	require.NotEmpty(t, created.PasswordHash)
	require.NotEqual(t, "secret123", created.PasswordHash)
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	s := New(&repoMock{})
	_, err := s.Create(context.Background(), "Ada", "ada@example.com", "secret123", "SUPERUSER")
	require.ErrorIs(t, err, ErrBadInput)
}

func TestDetail_NotFound(t *testing.T) {
	m := &repoMock{
		byIDFn: func(ctx context.Context, id string) (*model.User, error) { return nil, nil },
	}
	s := New(m)
	_, err := s.Detail(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDelete_NotFound(t *testing.T) {
	m := &repoMock{
		updateFn: func(ctx context.Context, u *model.User) (bool, error) { return false, nil },
		deleteFn: func(ctx context.Context, id string) (bool, error) { return false, nil },
	}
	s := New(m)

	_, err := s.Update(context.Background(), "x", "Ada", "ada@example.com", model.RoleUser)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete(context.Background(), "x"), ErrNotFound)
}
