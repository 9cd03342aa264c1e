package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/articlehub/articlehub/internal/identity"
	"github.com/articlehub/articlehub/internal/users"
	"github.com/articlehub/articlehub/pkg/logger"
	"github.com/articlehub/articlehub/pkg/middleware"
)

// RegisterMe mounts GET /api/me behind the auth gate. When userSvc is set the
// caller's reader profile is upserted and returned alongside the identity;
// a profile store failure only drops the "user" field.
func RegisterMe(rg gin.IRouter, ver identity.Verifier, userSvc *users.Service, limits ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{middleware.AuthMiddleware(ver)}, limits...)
	chain = append(chain, func(c *gin.Context) {
		id, _ := identity.FromContext(c.Request.Context())
		body := gin.H{"identity": id}
		if userSvc != nil {
			u, err := userSvc.UpsertFromIdentity(c.Request.Context(), id)
			if err != nil {
				logger.Warnf("upsert reader profile %s: %v", id.UID, err)
			} else if u != nil {
				body["user"] = u
			}
		}
		c.JSON(http.StatusOK, body)
	})
	rg.GET("/api/me", chain...)
}
