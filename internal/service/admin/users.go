package admin

import (
	"context"
	"net/url"

	"github.com/Domenick1991/legalinmo/internal/domain"
)

type UsersBackend interface {
	ListUsers(ctx context.Context, token string) ([]domain.User, error)
}

type UsersUseCase interface {
	List(ctx context.Context, token string) ([]domain.User, error)
}

type UsersAdmin struct {
	backend UsersBackend
}

func NewUsersAdmin(backend UsersBackend) *UsersAdmin {
	return &UsersAdmin{backend: backend}
}

// List returns the customer users, filling a generated avatar for users
// without a photo.
func (u *UsersAdmin) List(ctx context.Context, token string) ([]domain.User, error) {
	users, err := u.backend.ListUsers(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Avatar == "" {
			users[i].Avatar = "https://ui-avatars.com/api/?name=" + url.QueryEscape(users[i].Name)
		}
	}
	return users, nil
}

var _ UsersUseCase = (*UsersAdmin)(nil)
