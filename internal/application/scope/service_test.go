package scope_test

import (
	"context"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/application/apptest"
	"github.com/jhoicas/form-reporting-api/internal/application/scope"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type org struct {
	tenants *apptest.Tenants
	depts   *apptest.Departments
	regions *apptest.Regions
	users   *apptest.Users
	svc     *scope.Service
}

func strp(s string) *string { return &s }

// newOrg dos regiones: r1 con t1 y t2 (t2 inactivo), r2 con t3.
func newOrg(t *testing.T) *org {
	t.Helper()
	ctx := context.Background()
	o := &org{tenants: apptest.NewTenants(), depts: apptest.NewDepartments(), users: apptest.NewUsers()}
	o.regions = apptest.NewRegions(o.tenants)
	o.svc = scope.NewService(o.tenants, o.depts, o.regions, o.users)

	require.NoError(t, o.regions.Create(ctx, &entity.Region{ID: "r1", RegionNumber: 1, RegionCode: "R1", RegionName: "Norte", IsActive: true}))
	require.NoError(t, o.regions.Create(ctx, &entity.Region{ID: "r2", RegionNumber: 2, RegionCode: "R2", RegionName: "Sur", IsActive: true}))
	require.NoError(t, o.tenants.Create(ctx, &entity.Tenant{ID: "t1", TenantCode: "T1", TenantName: "Alfa", RegionID: strp("r1"), IsActive: true}))
	require.NoError(t, o.tenants.Create(ctx, &entity.Tenant{ID: "t2", TenantCode: "T2", TenantName: "Beta", RegionID: strp("r1"), IsActive: false}))
	require.NoError(t, o.tenants.Create(ctx, &entity.Tenant{ID: "t3", TenantCode: "T3", TenantName: "Gamma", RegionID: strp("r2"), IsActive: true}))
	require.NoError(t, o.depts.Create(ctx, &entity.Department{ID: "d1", TenantID: "t3", DepartmentCode: "ICT", IsActive: true}))

	for _, u := range []*entity.User{
		{ID: "u1", TenantID: "t1", FirstName: "Ana", LastName: "Zeta", IsActive: true},
		{ID: "u2", TenantID: "t3", DepartmentID: strp("d1"), FirstName: "Bruno", LastName: "Alba", IsActive: true},
		{ID: "u3", TenantID: "t3", FirstName: "Carla", LastName: "Mora", IsActive: true},
		{ID: "u4", TenantID: "t1", FirstName: "Ana", LastName: "Baez", IsActive: false},
	} {
		require.NoError(t, o.users.Create(ctx, u))
	}
	return o
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func TestAccessibleTenantIDs_PorAlcance(t *testing.T) {
	o := newOrg(t)
	cases := []struct {
		name   string
		claims *access.Claims
		want   []string
	}{
		{"global", &access.Claims{ScopeCode: entity.ScopeGlobal, TenantAccess: "*"}, []string{"t1", "t3"}},
		{"regional", &access.Claims{ScopeCode: entity.ScopeRegional, TenantAccess: "Region:r1"}, []string{"t1"}},
		{"tenant", &access.Claims{ScopeCode: entity.ScopeTenant, TenantAccess: "Tenant:t3"}, []string{"t3"}},
		{"team", &access.Claims{ScopeCode: "team", TenantAccess: "Tenant:t1"}, []string{"t1"}},
		{"departamento", &access.Claims{ScopeCode: entity.ScopeDepartment, TenantAccess: "Department:d1"}, []string{"t3"}},
		{"individual", &access.Claims{ScopeCode: entity.ScopeIndividual, TenantAccess: "User:u1"}, []string{}},
		{"excepciones sin duplicados", &access.Claims{ScopeCode: entity.ScopeTenant, TenantAccess: "Tenant:t1", TenantAccessExceptions: []string{"t3", "t1"}}, []string{"t1", "t3"}},
		{"sin alcance", &access.Claims{TenantAccess: "*"}, []string{}},
		{"sin acceso", &access.Claims{ScopeCode: entity.ScopeGlobal}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := o.svc.AccessibleTenantIDs(context.Background(), tc.claims)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRestriction_GlobalSinFiltro(t *testing.T) {
	o := newOrg(t)
	got, err := o.svc.Restriction(context.Background(), &access.Claims{ScopeCode: entity.ScopeGlobal, TenantAccess: "*"})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = o.svc.Restriction(context.Background(), &access.Claims{ScopeCode: entity.ScopeIndividual, TenantAccess: "User:u1"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCanAccessTenant(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()
	regional := &access.Claims{ScopeCode: entity.ScopeRegional, TenantAccess: "Region:r2"}

	ok, err := o.svc.CanAccessTenant(ctx, regional, "t3")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = o.svc.CanAccessTenant(ctx, regional, "t1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccessibleUsers(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()
	userID := func(u *entity.User) string { return u.ID }

	all, err := o.svc.AccessibleUsers(ctx, &access.Claims{ScopeCode: entity.ScopeGlobal, TenantAccess: "*"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, ids(all, userID), "solo activos, por nombre y apellido")

	tenant, err := o.svc.AccessibleUsers(ctx, &access.Claims{ScopeCode: entity.ScopeTenant, TenantAccess: "Tenant:t3"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u3"}, ids(tenant, userID))

	dept, err := o.svc.AccessibleUsers(ctx, &access.Claims{ScopeCode: entity.ScopeDepartment, TenantAccess: "Department:d1", DepartmentID: "d1"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, ids(dept, userID))

	self, err := o.svc.AccessibleUsers(ctx, &access.Claims{UserID: "u3", ScopeCode: entity.ScopeIndividual, TenantAccess: "User:u3"}, "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, ids(self, userID))

	unknown, err := o.svc.AccessibleUsers(ctx, &access.Claims{ScopeCode: "OTHER", TenantAccess: "User:u3"}, "", 0)
	require.NoError(t, err)
	assert.Empty(t, unknown)

	search, err := o.svc.AccessibleUsers(ctx, &access.Claims{ScopeCode: entity.ScopeGlobal, TenantAccess: "*"}, "mo", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u3"}, ids(search, userID))

	short, err := o.svc.AccessibleUsers(ctx, &access.Claims{ScopeCode: entity.ScopeGlobal, TenantAccess: "*"}, "m", 1)
	require.NoError(t, err)
	assert.Len(t, short, 1, "búsqueda de un carácter se ignora y aplica el límite")
}

func TestAccessibleTenantsYRegiones(t *testing.T) {
	o := newOrg(t)
	ctx := context.Background()
	tenantID := func(t *entity.Tenant) string { return t.ID }
	regionID := func(r *entity.Region) string { return r.ID }

	regional := &access.Claims{ScopeCode: entity.ScopeRegional, TenantAccess: "Region:r1", TenantID: "t1", RegionID: "r1"}
	tenants, err := o.svc.AccessibleTenants(ctx, regional, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, ids(tenants, tenantID))

	tenantScope := &access.Claims{ScopeCode: entity.ScopeTenant, TenantAccess: "Tenant:t3", TenantID: "t3", RegionID: "r2"}
	tenants, err = o.svc.AccessibleTenants(ctx, tenantScope, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"t3"}, ids(tenants, tenantID))

	regions, err := o.svc.AccessibleRegions(ctx, &access.Claims{ScopeCode: entity.ScopeGlobal, TenantAccess: "*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids(regions, regionID))

	regions, err = o.svc.AccessibleRegions(ctx, tenantScope)
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, ids(regions, regionID))
}
