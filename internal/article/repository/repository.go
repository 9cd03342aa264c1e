package repository

import (
	"context"

	"github.com/articlehub/articlehub/internal/article"
)

// Repository is the store contract for article documents. Every mutation
// touches exactly one document and is atomic with respect to it.
type Repository interface {
	// FindByName returns article.ErrNotFound when no document matches.
	FindByName(ctx context.Context, name string) (*article.Article, error)
	List(ctx context.Context) ([]*article.Article, error)
	// Upvote increments upvotes and records uid in one step, only if uid is
	// not yet an upvoter. It returns article.ErrAlreadyUpvoted when the
	// condition fails and article.ErrNotFound when the name is unknown.
	Upvote(ctx context.Context, name, uid string) (*article.Article, error)
	// AddComment appends c and returns the document after the update.
	AddComment(ctx context.Context, name string, c article.Comment) (*article.Article, error)
	// Seed inserts the named articles that do not exist yet and reports how
	// many were created.
	Seed(ctx context.Context, names ...string) (int, error)
}
