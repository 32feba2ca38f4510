package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/apptest"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-for-unit-tests"

type fixture struct {
	users     *apptest.Users
	tenants   *apptest.Tenants
	cache     *apptest.ClaimsCache
	blacklist *apptest.Blacklist
	builder   *ClaimsBuilder
	uc        *AuthUseCase
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:     apptest.NewUsers(),
		tenants:   apptest.NewTenants(),
		cache:     apptest.NewClaimsCache(),
		blacklist: apptest.NewBlacklist(),
		now:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f.builder = NewClaimsBuilder(f.users, f.tenants, f.cache)
	f.builder.now = func() time.Time { return f.now }
	f.uc = NewAuthUseCase(f.users, f.builder, f.blacklist, JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "test"}, LockoutPolicy{MaxFailedAttempts: 3, LockoutMinutes: 15})
	f.uc.now = func() time.Time { return f.now }

	region := "region-1"
	require.NoError(t, f.tenants.Create(context.Background(), &entity.Tenant{ID: "t1", TenantCode: "HQ", TenantName: "Head Office", TenantType: entity.TenantHeadOffice, RegionID: &region, IsActive: true}))
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	dept := "d1"
	require.NoError(t, f.users.Create(context.Background(), &entity.User{
		ID: "u1", TenantID: "t1", DepartmentID: &dept, UserName: "jdoe", Email: "jdoe@example.com",
		PasswordHash: string(hash), FirstName: "John", LastName: "Doe", IsActive: true,
	}))
	f.users.Roles["u1"] = []*entity.Role{
		{RoleCode: entity.RoleEmployee, ScopeCode: entity.ScopeIndividual, ScopeLevel: 6, IsActive: true},
		{RoleCode: "REGIONAL_MGR", ScopeCode: entity.ScopeRegional, ScopeLevel: 2, IsActive: true},
		{RoleCode: "OLD", ScopeCode: entity.ScopeGlobal, ScopeLevel: 1, IsActive: false},
	}
	f.users.Permissions["u1"] = []string{entity.PermReportsView}
	return f
}

// ── Claims ────────────────────────────────────────────────────────────────────

func TestClaimsBuilder_AlcanceMasAmplioEntreRolesActivos(t *testing.T) {
	f := newFixture(t)
	past := f.now.Add(-time.Hour)
	future := f.now.Add(24 * time.Hour)
	f.users.Access["u1"] = []*entity.UserTenantAccess{
		{UserID: "u1", TenantID: "t9", IsActive: true, ExpiryDate: &future},
		{UserID: "u1", TenantID: "t8", IsActive: true, ExpiryDate: &past},
		{UserID: "u1", TenantID: "t7", IsActive: false},
	}

	c, err := f.builder.Build(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.ScopeRegional, c.ScopeCode)
	assert.Equal(t, 2, c.ScopeLevel)
	assert.Equal(t, "Region:region-1", c.TenantAccess)
	assert.Equal(t, []string{entity.RoleEmployee, "REGIONAL_MGR"}, c.Roles)
	assert.Equal(t, []string{"t9"}, c.TenantAccessExceptions)
	assert.Equal(t, "John Doe", c.FullName)
	assert.Equal(t, "Head Office", c.TenantName)
	assert.Equal(t, "d1", c.DepartmentID)
}

func TestClaimsBuilder_UsuarioInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.builder.Build(context.Background(), "nadie")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestClaimsBuilder_GetUsaCache(t *testing.T) {
	f := newFixture(t)
	cached := &access.Claims{UserID: "u1", UserName: "desde-cache"}
	require.NoError(t, f.cache.Set(context.Background(), cached))

	c, err := f.builder.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "desde-cache", c.UserName)

	f.builder.Invalidate(context.Background(), "u1")
	c, err = f.builder.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "jdoe", c.UserName)
}

// ── Login ─────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidasEmiteToken(t *testing.T) {
	f := newFixture(t)
	out, err := f.uc.Login(context.Background(), dto.LoginRequest{Login: "JDOE@example.com", Password: "secreto123"})
	require.NoError(t, err)
	require.NotNil(t, out.User)
	assert.Equal(t, "u1", out.User.UserID)

	parsed, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "t1", parsed.TenantID)
	assert.Equal(t, entity.ScopeRegional, parsed.ScopeCode)
	assert.Equal(t, "Region:region-1", parsed.TenantAccess)

	u, _ := f.users.GetByID(context.Background(), "u1")
	require.NotNil(t, u.LastLoginAt)
	assert.Equal(t, f.now, *u.LastLoginAt)
	assert.NotNil(t, f.cache.Items["u1"], "los claims quedan en cache")
}

func TestLogin_BloqueaTrasIntentosFallidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := dto.LoginRequest{Login: "jdoe", Password: "incorrecta"}

	_, err := f.uc.Login(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.Login(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.Login(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrAccountLocked)

	u, _ := f.users.GetByID(ctx, "u1")
	assert.Equal(t, 0, u.AccessFailedCount, "el contador se reinicia al bloquear")
	require.NotNil(t, u.LockoutEnd)

	_, err = f.uc.Login(ctx, dto.LoginRequest{Login: "jdoe", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrAccountLocked, "bloqueada aun con la contraseña correcta")

	f.now = f.now.Add(16 * time.Minute)
	_, err = f.uc.Login(ctx, dto.LoginRequest{Login: "jdoe", Password: "secreto123"})
	assert.NoError(t, err)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	f := newFixture(t)
	u := f.users.Items["u1"]
	u.IsActive = false

	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Login: "jdoe", Password: "secreto123"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	assert.True(t, errors.Is(err, domain.ErrAccountInactive))
}

func TestLogin_UsuarioDesconocido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Login(context.Background(), dto.LoginRequest{Login: "otro", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ── Logout y contraseña ───────────────────────────────────────────────────────

func TestLogout_RevocaToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.uc.Logout(ctx, "u1", "tok", time.Time{}))

	revoked, err := f.uc.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, f.now.Add(time.Hour), f.blacklist.Items["tok"])
	assert.Contains(t, f.cache.Invalidated, "u1")
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.uc.ChangePassword(ctx, "u1", dto.ChangePasswordRequest{CurrentPassword: "mala", NewPassword: "nueva12345"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, f.uc.ChangePassword(ctx, "u1", dto.ChangePasswordRequest{CurrentPassword: "secreto123", NewPassword: "nueva12345"}))
	_, err = f.uc.Login(ctx, dto.LoginRequest{Login: "jdoe", Password: "nueva12345"})
	assert.NoError(t, err)
}
