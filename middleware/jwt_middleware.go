package middleware

import (
	"superset-embed-gateway/config"
	authutils "superset-embed-gateway/lib/utils/auth-utils"
	apimodels "superset-embed-gateway/models/api"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AuthorizationRequired guards the token endpoints with the session token issued
// by /login. When session tokens are disabled it lets every request through.
func AuthorizationRequired(conf config.AuthConfig) fiber.Handler {
	if conf.SessionEnabled == nil || !*conf.SessionEnabled {
		return func(ctx *fiber.Ctx) error {
			return ctx.Next()
		}
	}
	return jwtware.New(jwtware.Config{
		Claims:     jwt.MapClaims{},
		ContextKey: authutils.LocalsUserKey,
		SigningKey: jwtware.SigningKey{
			JWTAlg: jwtware.HS256,
			Key:    []byte(conf.JWTSecret),
		},
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewError("Missing or invalid session token"))
		},
	})
}
