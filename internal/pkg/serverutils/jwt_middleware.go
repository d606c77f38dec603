package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalUserID        = "user_id"
	LocalAuthenticated = "authenticated"
)

// OptionalJwtMiddleware marks the request as authenticated when it carries a valid
// bearer token signed with secret, in the Authorization header or the token query
// parameter. Requests without a valid token pass through unauthenticated. An empty
// secret disables the check entirely.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ctx.Locals(LocalAuthenticated, false)
		if secret == "" {
			return ctx.Next()
		}

		tokenStr, ok := strings.CutPrefix(ctx.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || tokenStr == "" {
			// Browsers cannot set headers on websocket handshakes.
			tokenStr = ctx.Query("token")
		}
		if tokenStr == "" {
			return ctx.Next()
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return ctx.Next()
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			ctx.Locals(LocalUserID, claims["user_id"])
		}
		ctx.Locals(LocalAuthenticated, true)
		return ctx.Next()
	}
}

// IsAuthenticated reads the flag set by OptionalJwtMiddleware.
func IsAuthenticated(ctx *fiber.Ctx) bool {
	v, _ := ctx.Locals(LocalAuthenticated).(bool)
	return v
}
