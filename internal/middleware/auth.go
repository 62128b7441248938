package middleware

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"ticketdesk/internal/auth"
	apperrors "ticketdesk/internal/errors"
)

// ClaimsKey is the echo.Context key holding the caller's *auth.Claims.
const ClaimsKey = "claims"

const revokedKey = "token_revoked"

var errTokenRevoked = errors.New("token has been revoked")

// JWT authenticates "Authorization: Bearer <token>" with access tokens only.
// Blacklisted tokens are rejected. On success the caller id is attached to the
// request context.
func JWT(jwtService *auth.JWTService, tokens auth.TokenStoreInterface) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ClaimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return nil, err
			}
			if tokens != nil {
				// Lookup errors fail open; the store itself already fails safe.
				if revoked, _ := tokens.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID); revoked {
					c.Set(revokedKey, true)
					return nil, errTokenRevoked
				}
			}
			return claims, nil
		},
		SuccessHandler: func(c echo.Context) {
			if claims, ok := c.Get(ClaimsKey).(*auth.Claims); ok {
				req := c.Request()
				c.SetRequest(req.WithContext(auth.WithUserID(req.Context(), claims.UserID)))
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return apperrors.NewUnauthorizedError("Missing Authorization Header")
			}
			if revoked, _ := c.Get(revokedKey).(bool); revoked {
				return apperrors.NewUnauthorizedError("Token has been revoked")
			}
			return apperrors.NewUnauthorizedError("Invalid or expired token")
		},
	})
}

// ClaimsFrom returns the authenticated caller's claims, if any.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*auth.Claims)
	return claims, ok
}
