package apiv1

import (
	"superset-embed-gateway/config"
	"superset-embed-gateway/controllers"
	"superset-embed-gateway/lib/credentials"
	authutils "superset-embed-gateway/lib/utils/auth-utils"
	initchecker "superset-embed-gateway/lib/utils/init-checker"
	authapimodels "superset-embed-gateway/models/api/auth"

	"github.com/gofiber/fiber/v2"
)

const loginSuccessMessage = "Login successful"

type authApiController struct {
	controllers.BaseAPIController
	sessionEnabled bool
}

func InitAuthApiRouters(app fiber.Router, authConf config.AuthConfig) {
	initchecker.CheckInit("credentials", credentials.Instance)
	controller := authApiController{
		sessionEnabled: authConf.SessionEnabled != nil && *authConf.SessionEnabled,
	}
	app.Post("login", controller.login)
}

// @Summary Login
// @Tags Authentication
// @Description Checks the pair against the admin and manufacturer credentials and classifies the caller
// @Param	body				body		authapimodels.LoginRequest	true	"request body"
// @Success 200 {object} authapimodels.LoginResponse
// @Failure 400 {object} apimodels.ErrorResponse
// @Failure 401 {object} apimodels.ErrorResponse
// @Failure 500 {object} apimodels.ErrorResponse
// @router /login [post]
func (c *authApiController) login(ctx *fiber.Ctx) error {
	var payload authapimodels.LoginRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return c.SendBadRequest(ctx, err.Error())
	}

	identity, err := credentials.Instance.Authenticate(payload.Username, payload.Password)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Login failed")
	}

	resp := authapimodels.LoginResponse{
		Message:        loginSuccessMessage,
		UserType:       string(identity.UserType),
		UserIdentifier: identity.UserIdentifier,
	}
	if c.sessionEnabled {
		resp.AccessToken, err = authutils.GetToken(identity.UserIdentifier, identity.UserType)
		if err != nil {
			return c.SendError(ctx, c.GetLogger(ctx), err, "Failed to issue session token")
		}
	}
	return ctx.Status(fiber.StatusOK).JSON(resp)
}
