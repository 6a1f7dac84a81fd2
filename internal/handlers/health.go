package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"codecritic-backend/internal/models"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler godoc
// @Summary     Health check
// @Description Returns the health status of the API and its database connection
// @Tags        health
// @Accept      json
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Failure     503 {object} models.HealthResponse
// @Router      /health [get]
func NewHealthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.HealthResponse{
				Status:   "degraded",
				Database: "unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "ok",
			Database: "ok",
		})
	}
}
