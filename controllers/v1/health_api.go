package apiv1

import (
	"context"
	"time"

	"superset-embed-gateway/controllers"
	metadatadb "superset-embed-gateway/lib/metadata-db"
	apimodels "superset-embed-gateway/models/api"

	"github.com/gofiber/fiber/v2"
)

const probeTimeout = 3 * time.Second

type healthApiController struct {
	controllers.BaseAPIController
	probe metadatadb.Provider
}

// InitHealthApiRouters registers /healthz. probe may be nil when the metadata
// database check is disabled.
func InitHealthApiRouters(app fiber.Router, probe metadatadb.Provider) {
	controller := healthApiController{probe: probe}
	app.Get("healthz", controller.health)
}

// @Summary Health check
// @Tags Service
// @Success 200 {object} apimodels.StatusResponse
// @Failure 503 {object} apimodels.ErrorResponse
// @router /healthz [get]
func (c *healthApiController) health(ctx *fiber.Ctx) error {
	if c.probe != nil {
		probeCtx, cancel := context.WithTimeout(ctx.UserContext(), probeTimeout)
		defer cancel()
		if err := c.probe.Ping(probeCtx); err != nil {
			c.GetLogger(ctx).WithError(err).Warn("metadata db probe failed")
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(apimodels.NewError("Metadata database unavailable"))
		}
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewStatus("ok"))
}
