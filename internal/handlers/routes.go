// Package handlers - Route calculation endpoints
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/internal/services"
)

// RouteHandler handles route calculation HTTP requests
type RouteHandler struct {
	planner services.RoutePlannerServicer
}

// NewRouteHandler creates a new route handler instance
func NewRouteHandler(planner services.RoutePlannerServicer) *RouteHandler {
	return &RouteHandler{planner: planner}
}

// CalculateRoute handles POST /api/v1/routes/calculate
func (h *RouteHandler) CalculateRoute(c *fiber.Ctx) error {
	var req models.RouteRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	response, err := h.planner.CalculateRoute(c.Context(), &req)
	if err != nil {
		return respondRouteError(c, err)
	}

	return c.JSON(response)
}

// GetStatistics handles GET /api/v1/routes/statistics
func (h *RouteHandler) GetStatistics(c *fiber.Ctx) error {
	return c.JSON(h.planner.Statistics())
}

// respondRouteError maps planner error kinds to HTTP statuses
func respondRouteError(c *fiber.Ctx, err error) error {
	var (
		validationErr *models.ValidationError
		notFoundErr   *services.PortNotFoundError
		vesselErr     *services.VesselConstraintError
		noRouteErr    *services.NoRouteError
		timeoutErr    *services.CalculationTimeoutError
		upstreamErr   *services.UpstreamFailureError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Validation failed",
			"field": validationErr.Field,
			"details": validationErr.Message,
		})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":    "Port not found",
			"unlocode": notFoundErr.UNLocode,
			"details":  notFoundErr.Error(),
		})
	case errors.As(err, &vesselErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "Vessel constraints preclude routing",
			"details": vesselErr.Error(),
		})
	case errors.As(err, &noRouteErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "No viable route",
			"details": noRouteErr.Error(),
		})
	case errors.As(err, &timeoutErr):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error":   "Route calculation timed out",
			"details": timeoutErr.Error(),
		})
	case errors.As(err, &upstreamErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Port store unavailable",
			"details": upstreamErr.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to calculate route",
			"details": err.Error(),
		})
	}
}
