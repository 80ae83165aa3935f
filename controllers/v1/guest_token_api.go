package apiv1

import (
	"superset-embed-gateway/config"
	"superset-embed-gateway/controllers"
	supersethandler "superset-embed-gateway/lib/superset"
	initchecker "superset-embed-gateway/lib/utils/init-checker"
	"superset-embed-gateway/middleware"
	authapimodels "superset-embed-gateway/models/api/auth"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultFullUserID = "default_full_user"
	userIDQueryParam  = "user_id"
)

type guestTokenApiController struct {
	controllers.BaseAPIController
}

func InitGuestTokenApiRouters(app fiber.Router, authConf config.AuthConfig) {
	initchecker.CheckInit("superset", supersethandler.Instance)
	controller := guestTokenApiController{}
	app.Get("get-guest-token-rls",
		middleware.AuthorizationRequired(authConf),
		middleware.ManufacturerScope(),
		controller.guestTokenRLS)
	app.Get("get-guest-token-full",
		middleware.AuthorizationRequired(authConf),
		middleware.AdminRequired(),
		controller.guestTokenFull)
}

// @Summary RLS guest token
// @Tags Guest tokens
// @Description Guest token whose rows are restricted to one manufacturer
// @Param   manufacturer	query		string	true	"manufacturer name"
// @Param   Authorization	header		string	false	"Session token, only when session tokens are enabled"
// @Success 200 {object} authapimodels.GuestTokenResponse
// @Failure 400 {object} apimodels.ErrorResponse
// @Failure 403 {object} apimodels.ErrorResponse
// @Failure 500 {object} apimodels.ErrorResponse
// @Failure 503 {object} apimodels.ErrorResponse
// @Failure 504 {object} apimodels.ErrorResponse
// @router /get-guest-token-rls [get]
func (c *guestTokenApiController) guestTokenRLS(ctx *fiber.Ctx) error {
	manufacturer := ctx.Query("manufacturer")
	if manufacturer == "" {
		return c.SendBadRequest(ctx, "Manufacturer name is required for RLS token")
	}
	logger := c.GetLogger(ctx).WithField("manufacturer", manufacturer)
	logger.Info("rls guest token requested")

	token, err := supersethandler.Instance.GuestTokenRLS(ctx.UserContext(), manufacturer)
	if err != nil {
		return c.SendError(ctx, logger, err, "Internal server error generating RLS token")
	}
	return ctx.Status(fiber.StatusOK).JSON(authapimodels.GuestTokenResponse{Token: token})
}

// @Summary Full access guest token
// @Tags Guest tokens
// @Description Guest token without row restrictions
// @Param   user_id			query		string	false	"caller identifier, default_full_user when omitted"
// @Param   Authorization	header		string	false	"Session token, only when session tokens are enabled"
// @Success 200 {object} authapimodels.GuestTokenResponse
// @Failure 403 {object} apimodels.ErrorResponse
// @Failure 500 {object} apimodels.ErrorResponse
// @Failure 503 {object} apimodels.ErrorResponse
// @Failure 504 {object} apimodels.ErrorResponse
// @router /get-guest-token-full [get]
func (c *guestTokenApiController) guestTokenFull(ctx *fiber.Ctx) error {
	// an explicit empty user_id is kept, only a missing one gets the default
	userID := defaultFullUserID
	if ctx.Context().QueryArgs().Has(userIDQueryParam) {
		userID = ctx.Query(userIDQueryParam)
	}
	logger := c.GetLogger(ctx).WithField("user_id", userID)
	logger.Info("full access guest token requested")

	token, err := supersethandler.Instance.GuestTokenFull(ctx.UserContext(), userID)
	if err != nil {
		return c.SendError(ctx, logger, err, "Internal server error generating full access token")
	}
	return ctx.Status(fiber.StatusOK).JSON(authapimodels.GuestTokenResponse{Token: token})
}
