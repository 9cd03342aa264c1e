package users

import (
	"context"

	"github.com/articlehub/articlehub/internal/identity"
	"github.com/articlehub/articlehub/internal/models"
)

// Service encapsulates reader-profile logic
type Service struct {
	repo UserRepository
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// UpsertFromIdentity records the verified identity as a reader profile. An
// identity without a uid is ignored and yields (nil, nil).
func (s *Service) UpsertFromIdentity(ctx context.Context, id *identity.Identity) (*models.User, error) {
	if id == nil || id.UID == "" {
		return nil, nil
	}
	return s.repo.UpsertByUID(ctx, &models.User{UID: id.UID, Email: id.Email, Name: id.Name})
}
