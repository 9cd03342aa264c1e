package service

import (
	"context"
	"errors"

	"github.com/articlehub/articlehub/internal/article"
	"github.com/articlehub/articlehub/internal/article/repository"
	"github.com/articlehub/articlehub/internal/identity"
)

var (
	// ErrForbidden covers both "already upvoted" and "no usable uid"; callers
	// are not told which.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable is returned when no article store is configured.
	ErrUnavailable = errors.New("article store unavailable")
)

// Service implements the article read and mutation operations used by the
// handler layer. The repository is injected so tests can swap it out.
type Service struct {
	repo repository.Repository
}

func NewService(repo repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) store() (repository.Repository, error) {
	if s == nil || s.repo == nil {
		return nil, ErrUnavailable
	}
	return s.repo, nil
}

// Get returns the named article, or nil with no error when it does not exist.
func (s *Service) Get(ctx context.Context, name string) (*article.Article, error) {
	repo, err := s.store()
	if err != nil {
		return nil, err
	}
	a, err := repo.FindByName(ctx, name)
	if errors.Is(err, article.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]*article.Article, error) {
	repo, err := s.store()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// Upvote records one upvote from id on the named article.
//
// The pre-read gives the fast rejection path; the repository's conditional
// update is what actually guarantees one vote per uid when requests race.
func (s *Service) Upvote(ctx context.Context, name string, id *identity.Identity) (*article.Article, error) {
	repo, err := s.store()
	if err != nil {
		return nil, err
	}
	a, err := repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if id == nil || id.UID == "" || a.HasUpvoted(id.UID) {
		return nil, ErrForbidden
	}

	updated, err := repo.Upvote(ctx, name, id.UID)
	if errors.Is(err, article.ErrAlreadyUpvoted) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddComment appends a comment to the named article. postedBy is taken as
// given by the caller and is not checked against the verified identity.
func (s *Service) AddComment(ctx context.Context, name, postedBy, text string) (*article.Article, error) {
	repo, err := s.store()
	if err != nil {
		return nil, err
	}
	return repo.AddComment(ctx, name, article.Comment{PostedBy: postedBy, Text: text})
}

// Seed creates the named articles that do not exist yet.
func (s *Service) Seed(ctx context.Context, names ...string) (int, error) {
	repo, err := s.store()
	if err != nil {
		return 0, err
	}
	return repo.Seed(ctx, names...)
}
