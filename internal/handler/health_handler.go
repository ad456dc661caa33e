package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing store answers.
type Pinger func(ctx context.Context) error

// HealthHandler answers 503 only when a required check fails. Optional
// checks, like the token cache the store can do without, report "degraded".
type HealthHandler struct {
	required map[string]Pinger
	optional map[string]Pinger
}

func NewHealthHandler(required, optional map[string]Pinger) *HealthHandler {
	return &HealthHandler{required: required, optional: optional}
}

// Check godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      503  {object}  map[string]any
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	overall := "ok"
	components := make(map[string]string, len(h.required)+len(h.optional))

	for name, ping := range h.required {
		if err := ping(ctx); err != nil {
			components[name] = "unavailable"
			overall = "unavailable"
			continue
		}
		components[name] = "ok"
	}
	for name, ping := range h.optional {
		if err := ping(ctx); err != nil {
			components[name] = "degraded"
			if overall == "ok" {
				overall = "degraded"
			}
			continue
		}
		components[name] = "ok"
	}

	status := http.StatusOK
	if overall == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": overall, "components": components})
}
