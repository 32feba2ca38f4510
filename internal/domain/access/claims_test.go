package access_test

import (
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestBuildTenantAccess_PorAlcance(t *testing.T) {
	s := access.Subject{UserID: "u1", TenantID: "t1", RegionID: "r1", DepartmentID: "d1"}
	noDept := access.Subject{UserID: "u1", TenantID: "t1"}

	cases := []struct {
		name  string
		scope string
		subj  access.Subject
		want  string
	}{
		{"global", entity.ScopeGlobal, s, "*"},
		{"regional", entity.ScopeRegional, s, "Region:r1"},
		{"regional sin región", entity.ScopeRegional, noDept, ""},
		{"tenant", entity.ScopeTenant, s, "Tenant:t1"},
		{"team", entity.ScopeTeam, s, "Tenant:t1"},
		{"departamento", entity.ScopeDepartment, s, "Department:d1"},
		{"grupo de departamentos", entity.ScopeDeptGroup, s, "Department:d1"},
		{"departamento sin departamento", entity.ScopeDepartment, noDept, "Tenant:t1"},
		{"individual", entity.ScopeIndividual, s, "User:u1"},
		{"desconocido", "OTHER", s, "User:u1"},
		{"minúsculas", "global", s, "*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, access.BuildTenantAccess(tc.scope, tc.subj))
		})
	}
}

func TestHighestScope_MenorNivelGana(t *testing.T) {
	roles := []*entity.Role{
		{RoleCode: "EMPLOYEE", IsActive: true, ScopeCode: entity.ScopeIndividual, ScopeLevel: 6},
		{RoleCode: "MANAGER", IsActive: true, ScopeCode: "tenant", ScopeLevel: 3},
		{RoleCode: "OLD_ADMIN", IsActive: false, ScopeCode: entity.ScopeGlobal, ScopeLevel: 1},
	}
	code, level, ok := access.HighestScope(roles)
	assert.True(t, ok)
	assert.Equal(t, entity.ScopeTenant, code)
	assert.Equal(t, 3, level)

	_, _, ok = access.HighestScope(nil)
	assert.False(t, ok)
}

func TestParse_Prefijos(t *testing.T) {
	id, ok := access.Parse("Region:abc", access.PrefixRegion)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = access.Parse("Tenant:abc", access.PrefixRegion)
	assert.False(t, ok)

	_, ok = access.Parse("Region:", access.PrefixRegion)
	assert.False(t, ok)
}

func TestClaims_PermisosYRoles(t *testing.T) {
	c := &access.Claims{Roles: []string{"EMPLOYEE"}, Permissions: []string{entity.PermReportsView}}
	assert.True(t, c.HasPermission(entity.PermReportsView))
	assert.False(t, c.HasPermission(entity.PermUsersManage))

	admin := &access.Claims{Roles: []string{entity.RoleSystemAdmin}}
	assert.True(t, admin.HasPermission(entity.PermUsersManage), "SYSTEM_ADMIN tiene todos los permisos")

	var nilClaims *access.Claims
	assert.False(t, nilClaims.HasPermission(entity.PermReportsView))
	assert.False(t, nilClaims.HasGlobalScope())
}

func TestEffectiveExceptions_FiltraVencidasEInactivas(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	rows := []*entity.UserTenantAccess{
		{TenantID: "a", IsActive: true},
		{TenantID: "b", IsActive: true, ExpiryDate: &future},
		{TenantID: "c", IsActive: true, ExpiryDate: &past},
		{TenantID: "d", IsActive: false},
		{TenantID: "a", IsActive: true},
	}
	got := access.EffectiveExceptions(rows, func(a *entity.UserTenantAccess) bool { return a.IsEffective(now) })
	assert.Equal(t, []string{"a", "b"}, got)
}
