package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"notequiz/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID"

	accessTokenType = "access"
)

// AccessClaims is the token payload issued by the external auth collaborator.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Protected requires a valid bearer access token and stores the caller's
// user id in the request locals.
func Protected(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return unauthorized(c, "MISSING_AUTH_HEADER", "Authorization header is missing")
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			return unauthorized(c, "INVALID_AUTH_SCHEME", "Authorization scheme is not Bearer")
		}
		tokenString := strings.TrimPrefix(authHeader, BearerSchema)
		if tokenString == "" {
			return unauthorized(c, "EMPTY_TOKEN", "Token is empty")
		}

		claims := &AccessClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			return unauthorized(c, "INVALID_TOKEN", "Token is invalid or expired")
		}
		if claims.TokenType != accessTokenType {
			return c.Status(http.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "INVALID_TOKEN_TYPE",
				Message: fmt.Sprintf("Invalid token type: expected access, got %s", claims.TokenType),
				Status:  http.StatusForbidden,
			})
		}
		if claims.UserID == "" {
			return unauthorized(c, "INVALID_TOKEN", "Token carries no subject")
		}

		c.Locals(UserIDKey, claims.UserID)
		return c.Next()
	}
}

// UserIDFromCtx returns the authenticated user id set by Protected.
func UserIDFromCtx(c *fiber.Ctx) string {
	if id, ok := c.Locals(UserIDKey).(string); ok {
		return id
	}
	return ""
}

func unauthorized(c *fiber.Ctx, code, message string) error {
	return c.Status(http.StatusUnauthorized).JSON(dto.ErrorResponse{
		Code:    code,
		Message: message,
		Status:  http.StatusUnauthorized,
	})
}
