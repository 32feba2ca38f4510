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

func newTenantUC(f *fixture) *usecase.TenantUseCase {
	s := f.store
	return usecase.NewTenantUseCase(s.Tenants, s.Departments, s.Regions, s.Groups, s.Users, s, f.scope, f.inv)
}

func TestTenantCreate_DepartamentosPorDefectoYGrupos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	group := &entity.TenantGroup{GroupCode: "TEA", GroupName: "Fábricas de té", IsActive: true}
	require.NoError(t, f.store.Groups.Create(ctx, group))

	out, err := newTenantUC(f).Create(ctx, userAdmin, dto.CreateTenantRequest{
		TenantType:               entity.TenantFactory,
		TenantCode:               " f2 ",
		TenantName:               "Fábrica Dos",
		RegionID:                 strp(regionSur),
		CreateDefaultDepartments: true,
		GroupIDs:                 []string{group.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "F2", out.TenantCode)
	require.Len(t, out.Departments, 4)

	depts, err := f.store.Departments.ListByTenant(ctx, out.ID)
	require.NoError(t, err)
	codes := make([]string, 0, len(depts))
	for _, d := range depts {
		codes = append(codes, d.DepartmentCode)
	}
	assert.ElementsMatch(t, []string{"GEN", "ICT", "FIN", "OPS"}, codes)

	members, err := f.store.Groups.ListMembers(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, out.ID, members[0].ID)
}

func TestTenantCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	uc := newTenantUC(f)
	ctx := context.Background()

	_, err := uc.Create(ctx, userAdmin, dto.CreateTenantRequest{TenantType: entity.TenantFactory, TenantCode: "f1", TenantName: "Copia"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "tenant_code", verrs[0].Field)

	_, err = uc.Create(ctx, userAdmin, dto.CreateTenantRequest{TenantType: entity.TenantHeadOffice, TenantCode: "HO2", TenantName: "Otra central"})
	assert.ErrorIs(t, err, domain.ErrHeadOfficeExists)

	_, err = uc.Create(ctx, userAdmin, dto.CreateTenantRequest{
		TenantType:  entity.TenantSubsidiary,
		TenantCode:  "S1",
		TenantName:  "Sub",
		Departments: []dto.DepartmentInput{{DepartmentCode: "ops", DepartmentName: "A"}, {DepartmentCode: "OPS", DepartmentName: "B"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTenantDelete_UnicaOficinaCentralRechazada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// sin usuarios, para que solo aplique la regla de la oficina central
	delete(f.store.Users.Items, userAdmin)

	err := newTenantUC(f).Delete(ctx, tenantHO)
	assert.ErrorIs(t, err, domain.ErrLastHeadOffice)

	got, err := f.store.Tenants.GetByID(ctx, tenantHO)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestTenantUpdate_NoCambiaTipoDeUnicaOficinaCentral(t *testing.T) {
	f := newFixture(t)
	_, err := newTenantUC(f).Update(context.Background(), userAdmin, tenantHO, dto.UpdateTenantRequest{
		TenantType: entity.TenantFactory,
		TenantCode: "HO",
		TenantName: "Casa Matriz",
	})
	assert.ErrorIs(t, err, domain.ErrLastHeadOffice)
}

func TestTenantUpdate_CambioDeRegionInvalidaClaims(t *testing.T) {
	f := newFixture(t)
	uc := newTenantUC(f)
	ctx := context.Background()

	_, err := uc.Update(ctx, userAdmin, tenantF1, dto.UpdateTenantRequest{
		TenantType: entity.TenantFactory,
		TenantCode: "F1",
		TenantName: "Fábrica Uno renombrada",
		RegionID:   strp(regionSur),
	})
	require.NoError(t, err)
	assert.Empty(t, f.inv.IDs, "sin cambio de región ni tipo no se invalida")

	_, err = uc.Update(ctx, userAdmin, tenantF1, dto.UpdateTenantRequest{
		TenantType: entity.TenantFactory,
		TenantCode: "F1",
		TenantName: "Fábrica Uno",
		RegionID:   strp(regionNorte),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{userLocal}, f.inv.IDs)
}

func TestTenantDelete_ConUsuariosYSinUsuarios(t *testing.T) {
	f := newFixture(t)
	uc := newTenantUC(f)
	ctx := context.Background()

	assert.ErrorIs(t, uc.Delete(ctx, tenantF1), domain.ErrHasDependents)

	delete(f.store.Users.Items, userLocal)
	child := &entity.Department{TenantID: tenantF1, ParentDepartmentID: strp(deptICT), DepartmentCode: "HELP", IsActive: true}
	require.NoError(t, f.store.Departments.Create(ctx, child))

	require.NoError(t, uc.Delete(ctx, tenantF1))
	got, _ := f.store.Tenants.GetByID(ctx, tenantF1)
	assert.Nil(t, got)
	depts, _ := f.store.Departments.ListByTenant(ctx, tenantF1)
	assert.Empty(t, depts)
}

func TestTenantList_RespetaAlcance(t *testing.T) {
	f := newFixture(t)
	uc := newTenantUC(f)
	ctx := context.Background()

	all, err := uc.List(ctx, f.admin, dto.TenantListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page.Total)
	assert.Equal(t, 20, all.Page.Limit)

	own, err := uc.List(ctx, f.local, dto.TenantListRequest{})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.Equal(t, tenantF1, own.Items[0].ID)

	_, err = uc.GetByID(ctx, f.local, tenantHO)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRegion_UnicidadYBaja(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewRegionUseCase(f.store.Regions)
	ctx := context.Background()

	_, err := uc.Create(ctx, dto.RegionRequest{RegionNumber: 1, RegionName: "Otra", RegionCode: "nor"})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	assert.ErrorIs(t, uc.Delete(ctx, regionNorte), domain.ErrHasDependents)

	created, err := uc.Create(ctx, dto.RegionRequest{RegionNumber: 3, RegionName: "Este", RegionCode: "est"})
	require.NoError(t, err)
	assert.Equal(t, "EST", created.RegionCode)
	require.NoError(t, uc.Delete(ctx, created.ID))

	got, err := uc.GetByID(ctx, regionSur)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TenantCount)
}

func TestDepartment_JerarquiaYBaja(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewDepartmentUseCase(f.store.Departments, f.store.Tenants, f.store.Users, f.scope)
	ctx := context.Background()

	child, err := uc.Create(ctx, f.admin, dto.DepartmentRequest{TenantID: tenantF1, ParentDepartmentID: strp(deptICT), DepartmentCode: "help", DepartmentName: "Mesa de ayuda"})
	require.NoError(t, err)

	_, err = uc.Create(ctx, f.admin, dto.DepartmentRequest{TenantID: tenantF1, DepartmentCode: "ICT", DepartmentName: "Repetido"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, f.admin, dto.DepartmentRequest{TenantID: tenantHO, ParentDepartmentID: strp(deptICT), DepartmentCode: "X", DepartmentName: "Otro tenant"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, f.admin, deptICT, dto.DepartmentRequest{TenantID: tenantF1, ParentDepartmentID: strp(child.ID), DepartmentCode: "ICT", DepartmentName: "ICT"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ciclo")

	tree, err := uc.Tree(ctx, f.admin, tenantF1)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "HELP", tree[0].Children[0].DepartmentCode)

	assert.ErrorIs(t, uc.Delete(ctx, f.admin, deptICT), domain.ErrHasDependents)
	require.NoError(t, uc.Delete(ctx, f.admin, child.ID))

	_, err = uc.ListByTenant(ctx, f.local, tenantHO)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestTenantGroup_Miembros(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewTenantGroupUseCase(f.store.Groups, f.store.Tenants)
	ctx := context.Background()

	g, err := uc.Create(ctx, userAdmin, dto.TenantGroupRequest{GroupName: "Fábricas", GroupCode: "fab"})
	require.NoError(t, err)
	_, err = uc.Create(ctx, userAdmin, dto.TenantGroupRequest{GroupName: "Otro", GroupCode: "FAB"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, uc.AddMembers(ctx, userAdmin, g.ID, dto.GroupMembersRequest{TenantIDs: []string{tenantF1}}))
	assert.ErrorIs(t, uc.AddMembers(ctx, userAdmin, g.ID, dto.GroupMembersRequest{TenantIDs: []string{"no-existe"}}), domain.ErrInvalidInput)

	got, err := uc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "F1", got.Members[0].TenantCode)

	require.NoError(t, uc.RemoveMember(ctx, g.ID, tenantF1))
	got, err = uc.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Members)
}
