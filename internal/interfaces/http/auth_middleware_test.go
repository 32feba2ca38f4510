package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	apphttp "github.com/jhoicas/form-reporting-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/form-reporting-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret  = "test-secret-key-for-unit-tests"
	testUserID     = "00000000-0000-0000-0000-000000000001"
	testTenantID   = "00000000-0000-0000-0000-000000000002"
	testIssuer     = "form-reporting-test"
	testExpMin     = 60
	testCookieName = "session"
)

type fakeRevoked map[string]bool

func (f fakeRevoked) IsRevoked(_ context.Context, token string) (bool, error) {
	return f[token], nil
}

type fakeClaims map[string]*access.Claims

func (f fakeClaims) Get(_ context.Context, userID string) (*access.Claims, error) {
	return f[userID], nil
}

// buildTestApp app mínima: AuthMiddleware + RequirePermission + handler que devuelve los claims.
func buildTestApp(cfg apphttp.AuthConfig, perms ...string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	chain := []fiber.Handler{apphttp.AuthMiddleware(cfg)}
	if len(perms) > 0 {
		chain = append(chain, apphttp.RequirePermission(perms...))
	}
	chain = append(chain, func(c *fiber.Ctx) error {
		return c.JSON(apphttp.GetClaims(c))
	})
	app.Get("/protected", chain...)
	return app
}

func authConfig() apphttp.AuthConfig {
	return apphttp.AuthConfig{Secret: testJWTSecret, CookieName: testCookieName}
}

func tokenFor(t *testing.T, roles ...string) string {
	t.Helper()
	tok, _, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Subject{
		UserID:       testUserID,
		TenantID:     testTenantID,
		Roles:        roles,
		ScopeCode:    "TENANT",
		ScopeLevel:   4,
		TenantAccess: "Tenant:" + testTenantID,
	}, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return tok
}

func doRequest(t *testing.T, app *fiber.App, prepare func(*http.Request)) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if prepare != nil {
		prepare(req)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Code
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinToken_Retorna401(t *testing.T) {
	resp := doRequest(t, buildTestApp(authConfig()), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", errorCode(t, resp))
}

func TestAuthMiddleware_TokenInvalido_Retorna401(t *testing.T) {
	resp := doRequest(t, buildTestApp(authConfig()), bearer("token.invalido.aqui"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, resp))
}

func TestAuthMiddleware_EsquemaDistintoDeBearer_Retorna401(t *testing.T) {
	resp := doRequest(t, buildTestApp(authConfig()), func(r *http.Request) {
		r.Header.Set("Authorization", "Basic abc")
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_ExtraeClaimsDelToken(t *testing.T) {
	resp := doRequest(t, buildTestApp(authConfig()), bearer(tokenFor(t, entity.RoleEmployee)))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claims access.Claims
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&claims))
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testTenantID, claims.TenantID)
	assert.Equal(t, []string{entity.RoleEmployee}, claims.Roles)
	assert.Equal(t, "Tenant:"+testTenantID, claims.TenantAccess)
}

func TestAuthMiddleware_AceptaCookieDeSesion(t *testing.T) {
	tok := tokenFor(t, entity.RoleEmployee)
	resp := doRequest(t, buildTestApp(authConfig()), func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: testCookieName, Value: tok})
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_TokenRevocado_Retorna401(t *testing.T) {
	tok := tokenFor(t, entity.RoleEmployee)
	cfg := authConfig()
	cfg.Revoked = fakeRevoked{tok: true}

	resp := doRequest(t, buildTestApp(cfg), bearer(tok))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_UsaClaimsCompletosDelOrigen(t *testing.T) {
	cfg := authConfig()
	cfg.Claims = fakeClaims{testUserID: {
		UserID:      testUserID,
		UserName:    "jperez",
		Roles:       []string{entity.RoleEmployee},
		Permissions: []string{entity.PermSubmissionsFill},
	}}

	resp := doRequest(t, buildTestApp(cfg, entity.PermSubmissionsFill), bearer(tokenFor(t, entity.RoleEmployee)))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var claims access.Claims
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&claims))
	assert.Equal(t, "jperez", claims.UserName)
}

func TestAuthMiddleware_UsuarioInexistente_Retorna401(t *testing.T) {
	cfg := authConfig()
	cfg.Claims = fakeClaims{}

	resp := doRequest(t, buildTestApp(cfg), bearer(tokenFor(t, entity.RoleEmployee)))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, resp))
}

// ──────────────────────────────────────────────────────────────────────────────
// RequirePermission / RequireModule
// ──────────────────────────────────────────────────────────────────────────────

func TestRequirePermission_SinPermiso_Retorna403(t *testing.T) {
	resp := doRequest(t, buildTestApp(authConfig(), entity.PermReportsManage), bearer(tokenFor(t, entity.RoleEmployee)))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
}

func TestRequirePermission_SystemAdminPasaSiempre(t *testing.T) {
	resp := doRequest(t, buildTestApp(authConfig(), entity.PermReportsManage), bearer(tokenFor(t, entity.RoleSystemAdmin)))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequirePermission_CualquieraDeLosPermisos(t *testing.T) {
	cfg := authConfig()
	cfg.Claims = fakeClaims{testUserID: {UserID: testUserID, Permissions: []string{entity.PermReportsView}}}

	resp := doRequest(t, buildTestApp(cfg, entity.PermReportsManage, entity.PermReportsView), bearer(tokenFor(t)))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireModule(t *testing.T) {
	cfg := authConfig()
	cfg.Claims = fakeClaims{testUserID: {UserID: testUserID, Permissions: []string{entity.PermReportsView}}}

	app := fiber.New()
	app.Get("/reports", apphttp.AuthMiddleware(cfg), apphttp.RequireModule("Reports"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/forms", apphttp.AuthMiddleware(cfg), apphttp.RequireModule("Forms"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tok := tokenFor(t)
	for path, want := range map[string]int{"/reports": http.StatusOK, "/forms": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
		resp.Body.Close()
	}
}
