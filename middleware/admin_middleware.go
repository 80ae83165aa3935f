package middleware

import (
	authutils "superset-embed-gateway/lib/utils/auth-utils"
	"superset-embed-gateway/models"
	apimodels "superset-embed-gateway/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const manufacturerQueryParam = "manufacturer"

// AdminRequired rejects session tokens that do not belong to the admin. Without
// a session token (sessions disabled) the request passes.
func AdminRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !hasSession(ctx) {
			return ctx.Next()
		}
		if !authutils.GetUserType(ctx).IsAdmin() {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("Full access requires an admin session"))
		}
		return ctx.Next()
	}
}

// ManufacturerScope keeps a manufacturer session to its own rows: the requested
// manufacturer must match the token subject. Admin sessions may ask for any.
func ManufacturerScope() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !hasSession(ctx) {
			return ctx.Next()
		}
		switch authutils.GetUserType(ctx) {
		case models.UserTypeAdmin:
			return ctx.Next()
		case models.UserTypeManufacturer:
			requested := ctx.Query(manufacturerQueryParam)
			if requested != "" && requested != authutils.GetSubject(ctx) {
				return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("Manufacturer does not match the session"))
			}
			return ctx.Next()
		default:
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("Unknown user type in session"))
		}
	}
}

func hasSession(ctx *fiber.Ctx) bool {
	_, ok := ctx.Locals(authutils.LocalsUserKey).(*jwt.Token)
	return ok
}
