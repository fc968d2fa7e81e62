package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attendo/clinic-queue/internal/utils"
)

func runProtected(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	at, err := utils.NewAccessToken("secret", 42, "OPERATOR", 5)
	require.NoError(t, err)

	rec := runProtected(t, "Bearer "+at.Token, JWTAuth("secret"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthRejectsMissingOrBadToken(t *testing.T) {
	rec := runProtected(t, "", JWTAuth("secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = runProtected(t, "Bearer not-a-jwt", JWTAuth("secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	at, err := utils.NewAccessToken("other-secret", 42, "OPERATOR", 5)
	require.NoError(t, err)
	rec = runProtected(t, "Bearer "+at.Token, JWTAuth("secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleEnforcesClaim(t *testing.T) {
	opToken, err := utils.NewAccessToken("secret", 1, "OPERATOR", 5)
	require.NoError(t, err)
	adminOnly := []echo.MiddlewareFunc{JWTAuth("secret"), RequireRole("ADMIN")}

	rec := runProtected(t, "Bearer "+opToken.Token, adminOnly...)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken, err := utils.NewAccessToken("secret", 1, "ADMIN", 5)
	require.NoError(t, err)
	rec = runProtected(t, "Bearer "+adminToken.Token, adminOnly...)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = runProtected(t, "Bearer "+opToken.Token, JWTAuth("secret"), RequireRole("OPERATOR", "ADMIN"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
