package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acodeaday/acodeaday/internal/profile"
	"github.com/acodeaday/acodeaday/server/auth"
)

func newAuthTestService() *APIV1Service {
	return &APIV1Service{
		Secret: "test-secret",
		Profile: &profile.Profile{
			AuthUsername: "admin",
			AuthPassword: "hunter2",
		},
	}
}

func TestLogin(t *testing.T) {
	svc := newAuthTestService()
	e := echo.New()

	doLogin := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		require.NoError(t, svc.Login(e.NewContext(req, rec)))
		return rec
	}

	t.Run("valid credentials issue a token", func(t *testing.T) {
		rec := doLogin(`{"username": "admin", "password": "hunter2"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp loginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, "admin", resp.Username)

		claims, err := auth.ParseAccessToken(resp.AccessToken, []byte(svc.Secret))
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Name)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		rec := doLogin(`{"username": "admin", "password": "wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong username is rejected", func(t *testing.T) {
		rec := doLogin(`{"username": "root", "password": "hunter2"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	svc := newAuthTestService()
	e := echo.New()

	handler := svc.AuthMiddleware(func(c echo.Context) error {
		return c.String(http.StatusOK, currentUserID(c))
	})

	call := func(configure func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/today", nil)
		configure(req)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		return rec
	}

	t.Run("bearer token", func(t *testing.T) {
		token, err := auth.GenerateAccessToken("admin", time.Now().Add(time.Hour), []byte(svc.Secret))
		require.NoError(t, err)

		rec := call(func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", rec.Body.String())
	})

	t.Run("expired bearer token", func(t *testing.T) {
		token, err := auth.GenerateAccessToken("admin", time.Now().Add(-time.Hour), []byte(svc.Secret))
		require.NoError(t, err)

		rec := call(func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("basic auth", func(t *testing.T) {
		rec := call(func(req *http.Request) {
			req.SetBasicAuth("admin", "hunter2")
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin", rec.Body.String())
	})

	t.Run("bad basic credentials", func(t *testing.T) {
		rec := call(func(req *http.Request) {
			req.SetBasicAuth("admin", "wrong")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing credentials", func(t *testing.T) {
		rec := call(func(*http.Request) {})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})
}
