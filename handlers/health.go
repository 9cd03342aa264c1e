package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dependency is one readiness probe. Optional dependencies are reported but do
// not make the service unready.
type Dependency struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

// RegisterHealth registers /health (liveness) and /ready (readiness).
// Each check gets its own timeout so a hung dependency cannot stall the probe.
func RegisterHealth(rg gin.IRouter, started time.Time, timeout time.Duration, deps ...Dependency) {
	rg.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	rg.GET("/ready", func(c *gin.Context) {
		ready := true
		status := make(map[string]bool, len(deps))
		for _, d := range deps {
			ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
			err := d.Check(ctx)
			cancel()
			status[d.Name] = err == nil
			if err != nil && d.Required {
				ready = false
			}
		}
		body := gin.H{"deps": status, "uptime": time.Since(started).String()}
		if !ready {
			body["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
	})
}
