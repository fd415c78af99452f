// Package handlers provides HTTP handlers for the voyage planning API
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sowhan/seavoyage/internal/database"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/internal/services"
)

// Version is the API version reported by the version endpoint
const Version = "1.0.0"

// Handler holds shared dependencies for the base endpoints
type Handler struct {
	db        database.HealthChecker
	cache     services.SharedCache
	startedAt time.Time
}

// New creates the base handler
func New(db database.HealthChecker, cache services.SharedCache) *Handler {
	return &Handler{
		db:        db,
		cache:     cache,
		startedAt: time.Now(),
	}
}

// Health handles GET /api/v1/health
func (h *Handler) Health(c *fiber.Ctx) error {
	status := models.HealthStatus{
		Status:        "healthy",
		Version:       Version,
		Timestamp:     time.Now().UTC(),
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
	}

	// A nil checker means no database is configured (snapshot deployments)
	status.DatabaseConnected = true
	if h.db != nil {
		status.DatabaseConnected = h.db.Health(c.Context()) == nil
	}
	if h.cache != nil {
		status.CacheConnected = h.cache.Health(c.Context())
	}

	if !status.DatabaseConnected {
		status.Status = "degraded"
		return c.Status(fiber.StatusServiceUnavailable).JSON(status)
	}

	return c.JSON(status)
}

// GetVersion handles GET /api/v1/version
func (h *Handler) GetVersion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": Version,
		"name":    "seavoyage-api",
	})
}
