package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/articlehub/articlehub/internal/article"
	"github.com/articlehub/articlehub/internal/article/repository"
	"github.com/articlehub/articlehub/internal/identity"
)

func newSeeded(t *testing.T, names ...string) (*Service, *repository.MemoryRepo) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	_, err := repo.Seed(context.Background(), names...)
	require.NoError(t, err)
	return NewService(repo), repo
}

func TestUpvote_Scenario(t *testing.T) {
	svc, _ := newSeeded(t, "x")
	ctx := context.Background()
	u1 := &identity.Identity{UID: "u1"}

	a, err := svc.Upvote(ctx, "x", u1)
	require.NoError(t, err)
	require.Equal(t, 1, a.Upvotes)
	require.Equal(t, []string{"u1"}, a.UpvoterIDs)

	_, err = svc.Upvote(ctx, "x", u1)
	require.ErrorIs(t, err, ErrForbidden)

	got, err := svc.Get(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, 1, got.Upvotes)
	require.Equal(t, []string{"u1"}, got.UpvoterIDs)
}

func TestUpvote_UnknownArticle(t *testing.T) {
	svc, _ := newSeeded(t)
	_, err := svc.Upvote(context.Background(), "missing", &identity.Identity{UID: "u1"})
	require.ErrorIs(t, err, article.ErrNotFound)
}

func TestUpvote_NoUsableIdentity(t *testing.T) {
	svc, _ := newSeeded(t, "x")
	ctx := context.Background()

	_, err := svc.Upvote(ctx, "x", nil)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Upvote(ctx, "x", &identity.Identity{})
	require.ErrorIs(t, err, ErrForbidden)

	a, err := svc.Get(ctx, "x")
	require.NoError(t, err)
	require.Zero(t, a.Upvotes)
}

func TestUpvote_LegacyDocumentWithoutUpvoters(t *testing.T) {
	svc, repo := newSeeded(t)
	repo.Put(&article.Article{Name: "legacy"})

	a, err := svc.Upvote(context.Background(), "legacy", &identity.Identity{UID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 1, a.Upvotes)
	require.Equal(t, []string{"u1"}, a.UpvoterIDs)
	require.NotNil(t, a.Comments)
}

func TestUpvote_ConcurrentDistinctUsers(t *testing.T) {
	svc, _ := newSeeded(t, "x")
	ctx := context.Background()
	const n = 25

	var g errgroup.Group
	for i := 0; i < n; i++ {
		uid := fmt.Sprintf("u%d", i)
		g.Go(func() error {
			_, err := svc.Upvote(ctx, "x", &identity.Identity{UID: uid})
			return err
		})
	}
	require.NoError(t, g.Wait())

	a, err := svc.Get(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, n, a.Upvotes)
	require.Len(t, a.UpvoterIDs, n)
}

func TestUpvote_ConcurrentSameUser(t *testing.T) {
	svc, _ := newSeeded(t, "x")
	ctx := context.Background()
	const n = 25

	var ok, forbidden atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.Upvote(ctx, "x", &identity.Identity{UID: "same"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrForbidden):
				forbidden.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.EqualValues(t, 1, ok.Load())
	require.EqualValues(t, n-1, forbidden.Load())

	a, err := svc.Get(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, 1, a.Upvotes)
	require.Equal(t, []string{"same"}, a.UpvoterIDs)
}

func TestAddComment_Scenario(t *testing.T) {
	svc, _ := newSeeded(t, "x")

	a, err := svc.AddComment(context.Background(), "x", "Ann", "hello")
	require.NoError(t, err)
	require.Equal(t, []article.Comment{{PostedBy: "Ann", Text: "hello"}}, a.Comments)
}

func TestAddComment_AppendsInOrder(t *testing.T) {
	svc, _ := newSeeded(t, "x")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a, err := svc.AddComment(ctx, "x", "Ann", fmt.Sprintf("c%d", i))
		require.NoError(t, err)
		require.Len(t, a.Comments, i+1)
	}
	a, err := svc.Get(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, "c0", a.Comments[0].Text)
	require.Equal(t, "c2", a.Comments[2].Text)
}

func TestAddComment_PostedByIsNotTiedToIdentity(t *testing.T) {
	svc, _ := newSeeded(t, "x")

	// any display name is accepted, including empty strings
	a, err := svc.AddComment(context.Background(), "x", "", "")
	require.NoError(t, err)
	require.Equal(t, article.Comment{}, a.Comments[0])
}

func TestAddComment_UnknownArticle(t *testing.T) {
	svc, _ := newSeeded(t)
	_, err := svc.AddComment(context.Background(), "missing", "Ann", "hello")
	require.ErrorIs(t, err, article.ErrNotFound)
}

func TestGet_UnknownReturnsNil(t *testing.T) {
	svc, _ := newSeeded(t)
	a, err := svc.Get(context.Background(), "missing")
	require.NoError(t, err)
	require.Nil(t, a)
}

func TestList_Sorted(t *testing.T) {
	svc, _ := newSeeded(t, article.DefaultSeed...)
	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "learn-node", list[0].Name)
}

func TestNilStoreIsUnavailable(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	_, err := svc.Get(ctx, "x")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.List(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Upvote(ctx, "x", &identity.Identity{UID: "u1"})
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.AddComment(ctx, "x", "Ann", "hi")
	require.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Seed(ctx, "x")
	require.ErrorIs(t, err, ErrUnavailable)
}
