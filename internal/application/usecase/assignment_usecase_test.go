package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func newAssignmentUC(f *fixture) *usecase.AssignmentUseCase {
	s := f.store
	return usecase.NewAssignmentUseCase(s.Assignments, s.Templates, s.Tenants, s.Groups, s.Roles, s.Users, s.Departments, s.Submissions, s.Rules)
}

func TestAssignmentCreate_DestinoSegunTipo(t *testing.T) {
	f := newFixture(t)
	uc := newAssignmentUC(f)
	tpl := seedTemplate(t, f, "ASIG", false)
	ctx := context.Background()

	_, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignRole})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "role_id", verrs[0].Field)

	_, err = uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignSpecificTenant, TenantID: strp("99999999-9999-9999-9999-999999999999")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	until := time.Now().Add(-48 * time.Hour)
	from := until.Add(24 * time.Hour)
	_, err = uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignAll, EffectiveFrom: &from, EffectiveUntil: &until})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	out, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignTenantType, TenantType: strp(entity.TenantFactory)})
	require.NoError(t, err)
	assert.Equal(t, entity.AssignmentActive, out.Status)
	assert.True(t, out.IsEffective)
	assert.Equal(t, "Tipo de tenant: "+entity.TenantFactory, out.Target)

	targets, err := uc.Targets(ctx, out.ID)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, tenantF1, targets[0].ID)
}

func TestAssignmentCicloDeVida_SuspenderReactivarExtender(t *testing.T) {
	f := newFixture(t)
	uc := newAssignmentUC(f)
	tpl := seedTemplate(t, f, "CICLO", false)
	ctx := context.Background()

	a, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignAll})
	require.NoError(t, err)

	_, err = uc.Reactivate(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "ya activa")

	_, err = uc.Suspend(ctx, a.ID, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	sus, err := uc.Suspend(ctx, a.ID, "auditoría")
	require.NoError(t, err)
	assert.Equal(t, entity.AssignmentSuspended, sus.Status)
	assert.Contains(t, sus.Notes, "[Suspendida: auditoría]")
	assert.False(t, sus.IsEffective)

	_, err = uc.Suspend(ctx, a.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	re, err := uc.Reactivate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AssignmentActive, re.Status)

	cancelled, err := uc.Cancel(ctx, userAdmin, a.ID, "fin del programa")
	require.NoError(t, err)
	assert.Equal(t, entity.AssignmentRevoked, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	_, err = uc.Cancel(ctx, userAdmin, a.ID, "de nuevo")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	ext, err := uc.Extend(ctx, a.ID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, entity.AssignmentActive, ext.Status)
	assert.Nil(t, ext.CancelledBy)
	assert.Empty(t, ext.CancelReason)
}

func TestAssignmentBulkCancel_FallosIndividuales(t *testing.T) {
	f := newFixture(t)
	uc := newAssignmentUC(f)
	tpl := seedTemplate(t, f, "LOTE", false)
	ctx := context.Background()

	a, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignAll})
	require.NoError(t, err)
	missing := "99999999-9999-9999-9999-999999999999"

	out := uc.BulkCancel(ctx, userAdmin, dto.BulkCancelRequest{IDs: []string{a.ID, missing}, Reason: "cierre"})
	assert.Equal(t, 1, out.Updated)
	assert.Contains(t, out.Failed, missing)
}

func TestAssignmentExpireOverdue_RevocaVencidas(t *testing.T) {
	f := newFixture(t)
	uc := newAssignmentUC(f)
	tpl := seedTemplate(t, f, "VENCE", false)
	ctx := context.Background()

	from := time.Now().AddDate(0, -2, 0)
	until := time.Now().AddDate(0, 0, -1)
	old, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignAll, EffectiveFrom: &from, EffectiveUntil: &until})
	require.NoError(t, err)
	assert.True(t, old.IsExpired)
	current, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignSpecificTenant, TenantID: strp(tenantF1)})
	require.NoError(t, err)

	n, err := uc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, entity.AssignmentRevoked, f.store.Assignments.Items[old.ID].Status)
	assert.Equal(t, entity.AssignmentActive, f.store.Assignments.Items[current.ID].Status)

	_, err = uc.Reactivate(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "vencida")

	stats, err := uc.Statistics(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Revoked)
	assert.Equal(t, 1, stats.Effective)
}

func TestAssignmentCheckSubmission_Coincidencias(t *testing.T) {
	f := newFixture(t)
	uc := newAssignmentUC(f)
	tpl := seedTemplate(t, f, "CHK", false)
	ctx := context.Background()

	require.NoError(t, uc.CheckSubmission(ctx, f.local, tpl.ID, tenantF1), "sin asignaciones la plantilla es abierta")

	role := &entity.Role{ID: "88888888-8888-8888-8888-888888888888", RoleName: "Supervisor", RoleCode: "SUP", IsActive: true}
	require.NoError(t, f.store.Roles.Create(ctx, role))
	_, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignRole, RoleID: &role.ID})
	require.NoError(t, err)

	err = uc.CheckSubmission(ctx, f.local, tpl.ID, tenantF1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.store.Users.ReplaceRoles(ctx, userLocal, []string{role.ID}, userAdmin))
	assert.NoError(t, uc.CheckSubmission(ctx, f.local, tpl.ID, tenantF1))

	group := &entity.TenantGroup{ID: "99999999-0000-0000-0000-000000000001", GroupName: "Plantas", GroupCode: "PLANTAS", IsActive: true}
	require.NoError(t, f.store.Groups.Create(ctx, group))
	require.NoError(t, f.store.Groups.AddMember(ctx, &entity.TenantGroupMember{GroupID: group.ID, TenantID: tenantF1}))
	other := seedTemplate(t, f, "GRP", false)
	_, err = uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: other.ID, AssignmentType: entity.AssignTenantGroup, TenantGroupID: &group.ID})
	require.NoError(t, err)

	assert.NoError(t, uc.CheckSubmission(ctx, f.admin, other.ID, tenantF1))
	assert.ErrorIs(t, uc.CheckSubmission(ctx, f.admin, other.ID, tenantHO), domain.ErrForbidden)
}

func TestAssignmentMine_PendientesYFechaLimite(t *testing.T) {
	f := newFixture(t)
	uc := newAssignmentUC(f)
	rules := usecase.NewSubmissionRuleUseCase(f.store.Rules, f.store.Templates)
	tpl := seedTemplate(t, f, "MIO", false)
	hidden := seedTemplate(t, f, "AJENO", false)
	ctx := context.Background()

	_, err := uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: tpl.ID, AssignmentType: entity.AssignSpecificUser, UserID: strp(userLocal)})
	require.NoError(t, err)
	_, err = uc.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: hidden.ID, AssignmentType: entity.AssignSpecificTenant, TenantID: strp(tenantHO)})
	require.NoError(t, err)
	_, err = rules.Create(ctx, userAdmin, tpl.ID, dto.SubmissionRuleRequest{RuleName: "Mensual", Frequency: entity.RuleMonthly, DueDay: intp(5)})
	require.NoError(t, err)

	out, err := uc.Mine(ctx, f.local, dto.MyAssignmentsRequest{ReportingYear: 2025, ReportingMonth: 3})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, tpl.ID, out[0].TemplateID)
	assert.Equal(t, "Pending", out[0].Status)
	assert.Nil(t, out[0].SubmissionID)
	require.NotNil(t, out[0].DueDate)
	assert.Equal(t, time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC), out[0].DueDate.UTC())

	none, err := uc.Mine(ctx, &access.Claims{UserID: userAdmin, TenantID: tenantF1}, dto.MyAssignmentsRequest{})
	require.NoError(t, err)
	assert.Empty(t, none)
}
