package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/articlehub/articlehub/internal/article"
	"github.com/articlehub/articlehub/internal/article/service"
	"github.com/articlehub/articlehub/internal/identity"
	"github.com/articlehub/articlehub/pkg/logger"
	"github.com/articlehub/articlehub/pkg/metrics"
	"github.com/articlehub/articlehub/pkg/middleware"
)

type commentRequest struct {
	PostedBy string `json:"postedBy"`
	Text     string `json:"text"`
}

// RegisterArticleRoutes mounts the article API on r. Mutating routes sit
// behind the auth gate, so an unauthenticated request never reaches svc.
// limits run after the gate, which lets a rate limiter key on the uid.
func RegisterArticleRoutes(r gin.IRouter, svc *service.Service, ver identity.Verifier, limits ...gin.HandlerFunc) {
	read := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, limits...), h)
	}
	auth := middleware.AuthMiddleware(ver)
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{auth}, limits...), h)
	}

	r.GET("/api/articles", read(func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})...)

	r.GET("/api/articles/:name", read(func(c *gin.Context) {
		a, err := svc.Get(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		// unknown articles render as JSON null
		c.JSON(http.StatusOK, a)
	})...)

	r.POST("/api/articles/:name/upvote", write(func(c *gin.Context) {
		id, _ := middleware.IdentityFrom(c)
		a, err := svc.Upvote(c.Request.Context(), c.Param("name"), id)
		if err != nil {
			metrics.Upvotes.WithLabelValues(resultLabel(err)).Inc()
			writeError(c, err)
			return
		}
		metrics.Upvotes.WithLabelValues("ok").Inc()
		c.JSON(http.StatusOK, a)
	})...)

	r.POST("/api/articles/:name/comments", write(func(c *gin.Context) {
		var req commentRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			metrics.Comments.WithLabelValues("bad_request").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		a, err := svc.AddComment(c.Request.Context(), c.Param("name"), req.PostedBy, req.Text)
		if err != nil {
			metrics.Comments.WithLabelValues(resultLabel(err)).Inc()
			writeError(c, err)
			return
		}
		metrics.Comments.WithLabelValues("ok").Inc()
		c.JSON(http.StatusOK, a)
	})...)
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, article.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrForbidden):
		return "forbidden"
	case errors.Is(err, service.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, article.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed to upvote this article"})
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "article store unavailable"})
	default:
		logger.Errorf("article %q: %s %s: %v", c.Param("name"), c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
