package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Haudass/westride/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, authHeader string, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	require.NoError(t, h(c))
	return rec
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "driver", 5)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotSub, gotRole any
	next := func(c echo.Context) error {
		gotSub = c.Get("user_id")
		gotRole = c.Get("role")
		return c.String(http.StatusOK, "ok")
	}
	require.NoError(t, JWTAuth(testSecret)(next)(c))
	require.Equal(t, http.StatusOK, rec.Code)
	// JSON numeric claims come back as float64.
	require.Equal(t, float64(42), gotSub)
	require.Equal(t, "driver", gotRole)
}

func TestJWTAuthMissingToken(t *testing.T) {
	rec := runProtected(t, "", JWTAuth(testSecret))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 42, "driver", 5)
	require.NoError(t, err)
	rec := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "passenger", 5)
	require.NoError(t, err)

	rec := runProtected(t, "Bearer "+tok.Token,
		JWTAuth(testSecret), RequireRole("passenger"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = runProtected(t, "Bearer "+tok.Token,
		JWTAuth(testSecret), RequireRole("driver"))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = runProtected(t, "Bearer "+tok.Token,
		JWTAuth(testSecret), RequireRole("driver", "passenger"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleNoRole(t *testing.T) {
	rec := runProtected(t, "", RequireRole("driver"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
