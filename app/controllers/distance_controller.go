package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/bonesy512/landhub/internal/pkg/geo"
)

type DistanceRequestBody struct {
	Origins     string `json:"origins" validate:"required"`     // "lat,long"
	Destination string `json:"destination" validate:"required"` // city name
}

// DistanceController proxies distance-matrix lookups and audits each one.
type DistanceController struct {
	service *geo.Service
}

func NewDistanceController(service *geo.Service) *DistanceController {
	return &DistanceController{service: service}
}

func (dc *DistanceController) HandleDistanceToCity(c *fiber.Ctx) error {
	var req DistanceRequestBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	result, cached, err := dc.service.Lookup(ctx, req.Origins, req.Destination)
	if err != nil {
		if _, auditErr := dc.service.Auditor().RecordFailure(req.Origins, req.Destination, err); auditErr != nil {
			log.Warnf("failed to store distance request audit: %v", auditErr)
		}

		var routeErr *geo.RouteError
		if errors.As(err, &routeErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "route_error",
				"message": routeErr.Error(),
			})
		}
		log.Errorf("distance lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "Failed to fetch distance",
		})
	}

	if !cached {
		if _, auditErr := dc.service.Auditor().RecordSuccess(req.Origins, req.Destination, result); auditErr != nil {
			log.Warnf("failed to store distance request audit: %v", auditErr)
		}
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
