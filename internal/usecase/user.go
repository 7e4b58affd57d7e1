package usecase

import (
	"context"
	"strings"

	"github.com/arklim/account-auth/internal/core/domain"
)

// GetUser returns the public view of a user by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (domain.PublicUser, error) {
	if strings.TrimSpace(id) == "" {
		return domain.PublicUser{}, ErrUserNotFound
	}
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return user.Public(), nil
}
