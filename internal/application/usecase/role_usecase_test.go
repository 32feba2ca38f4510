package usecase_test

import (
	"context"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoleUC(f *fixture) *usecase.RoleUseCase {
	return usecase.NewRoleUseCase(f.store.Roles, f.store, f.inv)
}

func TestRoleCreate_ConPermisosYUsuarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := newRoleUC(f).Create(ctx, userAdmin, dto.CreateRoleRequest{
		RoleName:      "Gerente de planta",
		RoleCode:      "plant_mgr",
		ScopeLevelID:  "tenant",
		PermissionIDs: []string{"p1", "p2"},
		UserIDs:       []string{userLocal},
	})
	require.NoError(t, err)
	assert.Equal(t, "PLANT_MGR", out.RoleCode)
	assert.Equal(t, entity.ScopeTenant, out.ScopeCode)
	assert.Equal(t, 1, out.UserCount)
	assert.False(t, out.IsProtected)

	assert.Equal(t, []string{"p1", "p2"}, f.store.Roles.Perms[out.ID])
	assert.Equal(t, []string{userLocal}, f.store.Roles.Users[out.ID])
	assert.Equal(t, []string{userLocal}, f.inv.IDs)
}

func TestRoleCreate_CodigoDuplicadoEsErrorDeValidacion(t *testing.T) {
	f := newFixture(t)
	uc := newRoleUC(f)
	ctx := context.Background()

	_, err := uc.Create(ctx, userAdmin, dto.CreateRoleRequest{RoleName: "Auditor externo", RoleCode: "EXT_AUDIT", ScopeLevelID: "global"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, userAdmin, dto.CreateRoleRequest{RoleName: "Otro nombre", RoleCode: "ext_audit", ScopeLevelID: "global"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 1)
	assert.Equal(t, "role_code", verrs[0].Field)
}

func TestRoleCreate_CodigoYAlcanceInvalidos(t *testing.T) {
	f := newFixture(t)
	_, err := newRoleUC(f).Create(context.Background(), userAdmin, dto.CreateRoleRequest{RoleName: "X", RoleCode: "con-guion", ScopeLevelID: "nada"})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := []string{}
	for _, v := range verrs {
		fields = append(fields, v.Field)
	}
	assert.ElementsMatch(t, []string{"role_code", "scope_level_id"}, fields)
}

func TestRole_ProtegidoNoSeBorraNiCambiaCodigo(t *testing.T) {
	f := newFixture(t)
	uc := newRoleUC(f)
	ctx := context.Background()
	admin := &entity.Role{RoleName: "Administrador", RoleCode: entity.RoleSystemAdmin, ScopeLevelID: "global", IsActive: true}
	require.NoError(t, f.store.Roles.Create(ctx, admin))

	assert.ErrorIs(t, uc.Delete(ctx, admin.ID), domain.ErrProtectedRole)

	_, err := uc.Update(ctx, admin.ID, dto.UpdateRoleRequest{RoleName: "Administrador", RoleCode: "ROOT", ScopeLevelID: "global"})
	assert.ErrorIs(t, err, domain.ErrProtectedRole)

	out, err := uc.Update(ctx, admin.ID, dto.UpdateRoleRequest{RoleName: "Administrador del sistema", RoleCode: entity.RoleSystemAdmin, ScopeLevelID: "global"})
	require.NoError(t, err)
	assert.Equal(t, "Administrador del sistema", out.RoleName)
	assert.True(t, out.IsProtected)
}

func TestRoleDelete_EnUso(t *testing.T) {
	f := newFixture(t)
	uc := newRoleUC(f)
	ctx := context.Background()
	role := &entity.Role{RoleName: "Supervisor", RoleCode: "SUPERVISOR", ScopeLevelID: "team", IsActive: true}
	require.NoError(t, f.store.Roles.Create(ctx, role))
	require.NoError(t, uc.AssignUsers(ctx, userAdmin, role.ID, dto.AssignUsersRequest{UserIDs: []string{userLocal}}))

	assert.ErrorIs(t, uc.Delete(ctx, role.ID), domain.ErrRoleInUse)

	f.store.Roles.Users[role.ID] = nil
	require.NoError(t, uc.Delete(ctx, role.ID))
	assert.ErrorIs(t, uc.Delete(ctx, role.ID), domain.ErrNotFound)
}

func TestRoleSetPermissions_InvalidaMiembros(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := &entity.Role{RoleName: "Supervisor", RoleCode: "SUPERVISOR", ScopeLevelID: "team", IsActive: true}
	require.NoError(t, f.store.Roles.Create(ctx, role))
	f.store.Roles.Users[role.ID] = []string{userLocal, userAdmin}

	require.NoError(t, newRoleUC(f).SetPermissions(ctx, role.ID, dto.SetPermissionsRequest{PermissionIDs: []string{"p9"}}))
	assert.Equal(t, []string{"p9"}, f.store.Roles.Perms[role.ID])
	assert.ElementsMatch(t, []string{userLocal, userAdmin}, f.inv.IDs)
}

func TestRoleListModules_AgrupaYOrdena(t *testing.T) {
	f := newFixture(t)
	f.store.Roles.Modules = []*entity.Module{
		{ID: "m2", ModuleCode: "REPORTS", DisplayOrder: 2, IsActive: true},
		{ID: "m1", ModuleCode: "FORMS", DisplayOrder: 1, IsActive: true},
		{ID: "m3", ModuleCode: "OLD", DisplayOrder: 0, IsActive: false},
	}
	f.store.Roles.Permissions = []*entity.Permission{
		{ID: "p1", ModuleID: "m1", PermissionCode: "FORMS_VIEW", IsActive: true},
		{ID: "p2", ModuleID: "m1", PermissionCode: "FORMS_EDIT", IsActive: false},
	}

	mods, err := newRoleUC(f).ListModules(context.Background())
	require.NoError(t, err)
	require.Len(t, mods, 2)
	assert.Equal(t, "FORMS", mods[0].ModuleCode)
	require.Len(t, mods[0].Permissions, 1)
	assert.Equal(t, "FORMS_VIEW", mods[0].Permissions[0].PermissionCode)
	assert.NotNil(t, mods[1].Permissions)
	assert.Empty(t, mods[1].Permissions)

	levels, err := newRoleUC(f).ListScopeLevels(context.Background())
	require.NoError(t, err)
	require.Len(t, levels, len(entity.DefaultScopeLevels))
	assert.Equal(t, entity.ScopeGlobal, levels[0].ScopeCode)
}
