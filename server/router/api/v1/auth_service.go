package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/acodeaday/acodeaday/server/auth"
)

// userIDContextKey is the echo context key holding the authenticated user ID.
const userIDContextKey = "user-id"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
	Username    string `json:"username"`
}

// Login exchanges the configured credentials for an access token.
func (s *APIV1Service) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "malformed login request"})
	}

	if req.Username != s.Profile.AuthUsername || !auth.VerifyPassword(req.Password, s.Profile.AuthPassword) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "incorrect username or password"})
	}

	expiresAt := time.Now().Add(auth.AccessTokenDuration)
	token, err := auth.GenerateAccessToken(req.Username, expiresAt, []byte(s.Secret))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "failed to generate access token"})
	}

	return c.JSON(http.StatusOK, &loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Unix(),
		Username:    req.Username,
	})
}

// AuthMiddleware authenticates requests with either a Bearer access token or
// HTTP Basic credentials and stores the user ID in the request context.
func (s *APIV1Service) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)

		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			claims, err := auth.ParseAccessToken(token, []byte(s.Secret))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid or expired access token"})
			}
			c.Set(userIDContextKey, claims.Name)
			return next(c)
		}

		if username, password, ok := c.Request().BasicAuth(); ok {
			if username == s.Profile.AuthUsername && auth.VerifyPassword(password, s.Profile.AuthPassword) {
				c.Set(userIDContextKey, username)
				return next(c)
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"message": "incorrect username or password"})
		}

		c.Response().Header().Set("WWW-Authenticate", `Basic realm="acodeaday"`)
		return c.JSON(http.StatusUnauthorized, map[string]string{"message": "authentication required"})
	}
}

// currentUserID returns the authenticated user ID for the request.
func currentUserID(c echo.Context) string {
	userID, _ := c.Get(userIDContextKey).(string)
	return userID
}
