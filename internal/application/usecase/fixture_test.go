package usecase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/application/apptest"
	"github.com/jhoicas/form-reporting-api/internal/application/scope"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func boolp(b bool) *bool { return &b }

// fixture organización mínima: oficina central ho en r1, fábrica f1 en r2 con departamento d1.
type fixture struct {
	store *apptest.Store
	scope *scope.Service
	inv   *apptest.Invalidator
	admin *access.Claims
	local *access.Claims
}

const (
	regionNorte = "11111111-1111-1111-1111-111111111111"
	regionSur   = "22222222-2222-2222-2222-222222222222"
	tenantHO    = "33333333-3333-3333-3333-333333333333"
	tenantF1    = "44444444-4444-4444-4444-444444444444"
	deptICT     = "55555555-5555-5555-5555-555555555555"
	userAdmin   = "66666666-6666-6666-6666-666666666666"
	userLocal   = "77777777-7777-7777-7777-777777777777"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := apptest.NewStore()
	f := &fixture{
		store: s,
		scope: scope.NewService(s.Tenants, s.Departments, s.Regions, s.Users),
		inv:   &apptest.Invalidator{},
		admin: &access.Claims{UserID: userAdmin, TenantID: tenantHO, ScopeCode: entity.ScopeGlobal, TenantAccess: "*"},
		local: &access.Claims{UserID: userLocal, TenantID: tenantF1, ScopeCode: entity.ScopeTenant, TenantAccess: access.Format(access.PrefixTenant, tenantF1)},
	}
	require.NoError(t, s.Regions.Create(ctx, &entity.Region{ID: regionNorte, RegionNumber: 1, RegionCode: "NOR", RegionName: "Norte", IsActive: true}))
	require.NoError(t, s.Regions.Create(ctx, &entity.Region{ID: regionSur, RegionNumber: 2, RegionCode: "SUR", RegionName: "Sur", IsActive: true}))
	require.NoError(t, s.Tenants.Create(ctx, &entity.Tenant{ID: tenantHO, TenantType: entity.TenantHeadOffice, TenantCode: "HO", TenantName: "Casa Matriz", RegionID: strp(regionNorte), IsActive: true}))
	require.NoError(t, s.Tenants.Create(ctx, &entity.Tenant{ID: tenantF1, TenantType: entity.TenantFactory, TenantCode: "F1", TenantName: "Fábrica Uno", RegionID: strp(regionSur), IsActive: true}))
	require.NoError(t, s.Departments.Create(ctx, &entity.Department{ID: deptICT, TenantID: tenantF1, DepartmentCode: "ICT", DepartmentName: "ICT", IsActive: true}))
	require.NoError(t, s.Users.Create(ctx, &entity.User{ID: userAdmin, TenantID: tenantHO, UserName: "admin", Email: "admin@acme.test", IsActive: true}))
	require.NoError(t, s.Users.Create(ctx, &entity.User{ID: userLocal, TenantID: tenantF1, DepartmentID: strp(deptICT), UserName: "local", Email: "local@acme.test", IsActive: true}))
	return f
}
