package controllers

import (
	"superset-embed-gateway/lib/credentials"
	supersethandler "superset-embed-gateway/lib/superset"
	apimodels "superset-embed-gateway/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const requestIDLocalsKey = "requestid"

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		c.GetLogger(ctx).WithError(err).Error("failed to parse request body")
		return errors.New("failed to read request data")
	}
	return nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	entry := log.WithField("path", ctx.Path())
	if requestID, ok := ctx.Locals(requestIDLocalsKey).(string); ok && requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}

// SendError renders err as {"detail": ...}. Broker errors keep their status and
// message; anything unrecognised becomes a 500 with the given fallback detail.
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, fallback string) error {
	if errors.Is(err, credentials.ErrUnauthorized) {
		return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError(err.Error()))
	}
	if brokerErr, ok := supersethandler.AsError(err); ok {
		logger.
			WithField("kind", brokerErr.Kind).
			WithField("status", brokerErr.StatusCode).
			Error(brokerErr.Message)
		return ctx.Status(brokerErr.StatusCode).JSON(apimodels.NewError(brokerErr.Message))
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(apimodels.NewError(fiberErr.Message))
	}
	logger.WithError(err).Error(fallback)
	return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError(fallback))
}

func (c *BaseAPIController) SendBadRequest(ctx *fiber.Ctx, detail string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(detail))
}
