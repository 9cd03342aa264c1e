package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/articlehub/articlehub/internal/article"
	"github.com/articlehub/articlehub/internal/article/repository"
	"github.com/articlehub/articlehub/internal/article/service"
	"github.com/articlehub/articlehub/internal/identity"
	"github.com/articlehub/articlehub/pkg/middleware"
)

const secret = "handler-test-secret"

// countingRepo records every store access.
type countingRepo struct {
	*repository.MemoryRepo
	calls atomic.Int32
}

func (r *countingRepo) FindByName(ctx context.Context, name string) (*article.Article, error) {
	r.calls.Add(1)
	return r.MemoryRepo.FindByName(ctx, name)
}

func (r *countingRepo) Upvote(ctx context.Context, name, uid string) (*article.Article, error) {
	r.calls.Add(1)
	return r.MemoryRepo.Upvote(ctx, name, uid)
}

func (r *countingRepo) AddComment(ctx context.Context, name string, c article.Comment) (*article.Article, error) {
	r.calls.Add(1)
	return r.MemoryRepo.AddComment(ctx, name, c)
}

type failingRepo struct{ *repository.MemoryRepo }

func (failingRepo) List(context.Context) ([]*article.Article, error) {
	return nil, errors.New("connection reset")
}

func setup(t *testing.T) (*gin.Engine, *countingRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := &countingRepo{MemoryRepo: repository.NewMemoryRepo()}
	_, err := repo.Seed(context.Background(), "x")
	require.NoError(t, err)
	repo.calls.Store(0)

	ver, err := identity.NewHMACVerifier(secret)
	require.NoError(t, err)

	r := gin.New()
	RegisterArticleRoutes(r, service.NewService(repo), ver)
	return r, repo
}

func token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := identity.IssueHMACToken(secret, identity.Identity{UID: uid}, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) article.Article {
	t.Helper()
	var a article.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	return a
}

func TestGetArticle(t *testing.T) {
	r, _ := setup(t)

	w := do(r, http.MethodGet, "/api/articles/x", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"name":"x","upvotes":0,"upvoterIds":[],"comments":[]}`, w.Body.String())

	w = do(r, http.MethodGet, "/api/articles/missing", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "null", w.Body.String())
}

func TestListArticles(t *testing.T) {
	r, _ := setup(t)
	w := do(r, http.MethodGet, "/api/articles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []article.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestUpvote_Flow(t *testing.T) {
	r, _ := setup(t)
	hdr := map[string]string{"authtoken": token(t, "u1")}

	w := do(r, http.MethodPost, "/api/articles/x/upvote", "", hdr)
	require.Equal(t, http.StatusOK, w.Code)
	a := decode(t, w)
	require.Equal(t, 1, a.Upvotes)
	require.Equal(t, []string{"u1"}, a.UpvoterIDs)

	w = do(r, http.MethodPost, "/api/articles/x/upvote", "", hdr)
	require.Equal(t, http.StatusForbidden, w.Code)

	// a second user through the Authorization header form
	w = do(r, http.MethodPost, "/api/articles/x/upvote", "", map[string]string{"Authorization": "Bearer " + token(t, "u2")})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2, decode(t, w).Upvotes)
}

func TestUpvote_UnknownArticle(t *testing.T) {
	r, _ := setup(t)
	w := do(r, http.MethodPost, "/api/articles/nope/upvote", "", map[string]string{"authtoken": token(t, "u1")})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMutations_RequireCredential(t *testing.T) {
	r, repo := setup(t)

	w := do(r, http.MethodPost, "/api/articles/x/upvote", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/articles/x/comments", `{"postedBy":"Ann","text":"hi"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/articles/x/upvote", "", map[string]string{"authtoken": "garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	require.Zero(t, repo.calls.Load(), "store must not be touched before authentication")
}

func TestAddComment_Flow(t *testing.T) {
	r, _ := setup(t)
	hdr := map[string]string{"authtoken": token(t, "u1")}

	w := do(r, http.MethodPost, "/api/articles/x/comments", `{"postedBy":"Ann","text":"hello"}`, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []article.Comment{{PostedBy: "Ann", Text: "hello"}}, decode(t, w).Comments)

	// postedBy is free text, unrelated to the verified uid
	w = do(r, http.MethodPost, "/api/articles/x/comments", `{"postedBy":"Someone Else","text":"second"}`, hdr)
	require.Equal(t, http.StatusOK, w.Code)
	a := decode(t, w)
	require.Len(t, a.Comments, 2)
	require.Equal(t, "Someone Else", a.Comments[1].PostedBy)
}

func TestAddComment_BodyHandling(t *testing.T) {
	r, _ := setup(t)
	hdr := map[string]string{"authtoken": token(t, "u1")}

	w := do(r, http.MethodPost, "/api/articles/x/comments", "", hdr)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []article.Comment{{}}, decode(t, w).Comments)

	w = do(r, http.MethodPost, "/api/articles/x/comments", `{"postedBy":`, hdr)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/articles/nope/comments", `{"postedBy":"Ann","text":"hi"}`, hdr)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnavailableStoreAndVerifier(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterArticleRoutes(r, service.NewService(nil), nil)

	w := do(r, http.MethodGet, "/api/articles/x", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodPost, "/api/articles/x/upvote", "", map[string]string{"authtoken": "t"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStoreErrorIsInternal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterArticleRoutes(r, service.NewService(failingRepo{repository.NewMemoryRepo()}), nil)

	w := do(r, http.MethodGet, "/api/articles", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

func TestLimitsRunAfterAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	_, err := repo.Seed(context.Background(), "x")
	require.NoError(t, err)
	ver, err := identity.NewHMACVerifier(secret)
	require.NoError(t, err)

	var seen []string
	record := func(c *gin.Context) {
		if id, ok := middleware.IdentityFrom(c); ok {
			seen = append(seen, id.UID)
		} else {
			seen = append(seen, "")
		}
		c.Next()
	}
	r := gin.New()
	RegisterArticleRoutes(r, service.NewService(repo), ver, record)

	do(r, http.MethodGet, "/api/articles/x", "", nil)
	do(r, http.MethodPost, "/api/articles/x/upvote", "", map[string]string{"authtoken": token(t, "u1")})
	require.Equal(t, []string{"", "u1"}, seen)
}
