package authutils

import (
	"time"

	"superset-embed-gateway/config"
	"superset-embed-gateway/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimSubject  = "sub"
	ClaimUserType = "user_type"

	// key under which contrib/jwt stores the parsed token
	LocalsUserKey = "user"
)

// GetToken signs a session token for an authenticated caller. Only issued when
// session tokens are enabled in configuration.
func GetToken(identifier string, userType models.UserType) (tokenString string, err error) {
	now := time.Now()
	claims := jwt.MapClaims{
		ClaimSubject:  identifier,
		ClaimUserType: string(userType),
		"exp":         now.Add(time.Second * time.Duration(config.Conf.Auth.JWTExpireInSec)).Unix(),
		"iat":         now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Conf.Auth.JWTSecret))
}

func GetClaims(ctx *fiber.Ctx) jwt.MapClaims {
	token, ok := ctx.Locals(LocalsUserKey).(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.MapClaims{}
	}
	return claims
}

func GetSubject(ctx *fiber.Ctx) string {
	subject, _ := GetClaims(ctx)[ClaimSubject].(string)
	return subject
}

func GetUserType(ctx *fiber.Ctx) models.UserType {
	userType, _ := GetClaims(ctx)[ClaimUserType].(string)
	return models.UserType(userType)
}
