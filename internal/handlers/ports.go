// Package handlers - Port intelligence endpoints
package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sowhan/seavoyage/internal/database"
	"github.com/sowhan/seavoyage/internal/services"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// PortHandler handles port lookup and search HTTP requests
type PortHandler struct {
	ports   services.PortIntelligenceServicer
	limiter *services.SearchRateLimiter
}

// NewPortHandler creates a new port handler instance
func NewPortHandler(ports services.PortIntelligenceServicer, limiter *services.SearchRateLimiter) *PortHandler {
	return &PortHandler{
		ports:   ports,
		limiter: limiter,
	}
}

// GetPort handles GET /api/v1/ports/:unlocode
func (h *PortHandler) GetPort(c *fiber.Ctx) error {
	unlocode := strings.ToUpper(c.Params("unlocode"))
	if len(unlocode) != 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "UN/LOCODE must be 5 characters",
		})
	}

	port, err := h.ports.GetPort(c.Context(), unlocode)
	if err != nil {
		return respondPortError(c, err)
	}
	if port == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":    "Port not found",
			"unlocode": unlocode,
		})
	}

	return c.JSON(port)
}

// SearchPorts handles GET /api/v1/ports/search?q=...&limit=...&country=...
func (h *PortHandler) SearchPorts(c *fiber.Ctx) error {
	if h.limiter != nil && !h.limiter.Allow() {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Search rate limit exceeded",
		})
	}

	query := c.Query("q")
	if strings.TrimSpace(query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := database.SearchOptions{
		Country:         c.Query("country"),
		IncludeInactive: c.QueryBool("include_inactive", false),
	}

	results, err := h.ports.SearchPorts(c.Context(), query, limit, opts)
	if err != nil {
		return respondPortError(c, err)
	}

	return c.JSON(fiber.Map{
		"results": results,
		"count":   len(results),
	})
}

// NearbyPorts handles GET /api/v1/ports/nearby?lat=...&lon=...&radius_nm=...
func (h *PortHandler) NearbyPorts(c *fiber.Ctx) error {
	if h.limiter != nil && !h.limiter.Allow() {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Search rate limit exceeded",
		})
	}

	lat := c.QueryFloat("lat", 91)
	lon := c.QueryFloat("lon", 181)
	center := geo.Coordinates{Latitude: lat, Longitude: lon}
	if !center.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Valid lat and lon query parameters are required",
		})
	}

	radius := c.QueryFloat("radius_nm", 500)
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	results, err := h.ports.NearbyPorts(c.Context(), center, radius, limit, nil)
	if err != nil {
		return respondPortError(c, err)
	}

	return c.JSON(fiber.Map{
		"results": results,
		"count":   len(results),
	})
}

// GetStatistics handles GET /api/v1/ports/statistics
func (h *PortHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.ports.Statistics(c.Context())
	if err != nil {
		return respondPortError(c, err)
	}
	return c.JSON(stats)
}

func respondPortError(c *fiber.Ctx, err error) error {
	var upstreamErr *services.UpstreamFailureError
	if errors.As(err, &upstreamErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Port store unavailable",
			"details": upstreamErr.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "Port lookup failed",
		"details": err.Error(),
	})
}
