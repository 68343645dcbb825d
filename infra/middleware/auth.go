package middleware

import (
	"fmt"
	"strings"

	"lexflow_server/core/domain"
	"lexflow_server/core/service/authz"
	"lexflow_server/pkg/apperr"
	"lexflow_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTAuth validates HS256 bearer tokens and stores the resulting Actor in
// request locals. Tokens carry sub (user id), firm_id, and role claims.
func JWTAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		var tokenString string
		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		// EventSource cannot set headers, so the stream endpoint passes the
		// token as a query parameter.
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return apperr.Unauthenticated("missing authorization")
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unsupported signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			logger.WithError(err).Warn("JWT validation failed")
			if strings.Contains(err.Error(), "expired") {
				return apperr.New(apperr.CodeTokenExpired, "token expired", fiber.StatusUnauthorized)
			}
			return apperr.Unauthenticated("invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return apperr.Unauthenticated("invalid token claims")
		}

		actor, err := actorFromClaims(claims)
		if err != nil {
			logger.WithError(err).Warn("rejecting token with malformed claims")
			return apperr.Unauthenticated("invalid token claims")
		}

		c.Locals("actor", actor)
		c.Locals("user_id", actor.UserID)
		c.Locals("firm_id", actor.FirmID)
		return c.Next()
	}
}

func actorFromClaims(claims jwt.MapClaims) (*authz.Actor, error) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("missing sub claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid sub claim: %w", err)
	}

	rawFirm, _ := claims["firm_id"].(string)
	firmID, err := uuid.Parse(rawFirm)
	if err != nil {
		return nil, fmt.Errorf("invalid firm_id claim: %w", err)
	}

	rawRole, _ := claims["role"].(string)
	role := domain.Role(rawRole)
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", rawRole)
	}

	return &authz.Actor{
		UserID: userID,
		FirmID: firmID,
		Role:   role,
	}, nil
}
