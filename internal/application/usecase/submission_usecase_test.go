package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jhoicas/form-reporting-api/internal/application/apptest"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionEnv struct {
	*fixture
	uc        *usecase.SubmissionUseCase
	assign    *usecase.AssignmentUseCase
	rules     *usecase.SubmissionRuleUseCase
	storage   *apptest.Storage
	populator *apptest.Populator
	tpl       seededTemplate
}

func newSubmissionEnv(t *testing.T, requiresApproval bool) *submissionEnv {
	t.Helper()
	f := newFixture(t)
	env := &submissionEnv{fixture: f, storage: apptest.NewStorage(), populator: &apptest.Populator{}}
	env.tpl = seedTemplate(t, f, "INSP", requiresApproval)
	s := f.store
	env.assign = newAssignmentUC(f)
	env.rules = usecase.NewSubmissionRuleUseCase(s.Rules, s.Templates)
	env.uc = usecase.NewSubmissionUseCase(s.Submissions, s.Templates, f.scope, env.storage, env.populator, s, env.assign, env.rules)
	return env
}

func (e *submissionEnv) draft(t *testing.T) *dto.SubmissionResponse {
	t.Helper()
	out, err := e.uc.Create(context.Background(), e.local, dto.CreateSubmissionRequest{TemplateID: e.tpl.ID, TenantID: tenantF1, ReportingYear: 2025, ReportingMonth: 3})
	require.NoError(t, err)
	return out
}

func TestSubmissionCreate_PeriodoUnico(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()

	out := env.draft(t)
	assert.Equal(t, entity.SubmissionDraft, out.Status)
	assert.Equal(t, "2025-03", out.Period)

	_, err := env.uc.Create(ctx, env.local, dto.CreateSubmissionRequest{TemplateID: env.tpl.ID, TenantID: tenantF1, ReportingYear: 2025, ReportingMonth: 3})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = env.uc.Create(ctx, env.local, dto.CreateSubmissionRequest{TemplateID: env.tpl.ID, TenantID: tenantHO, ReportingYear: 2025, ReportingMonth: 3})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.uc.Create(ctx, env.local, dto.CreateSubmissionRequest{TemplateID: env.tpl.ID, TenantID: tenantF1, ReportingYear: 2025, ReportingMonth: 13})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmissionCreate_PlantillaNoPublicada(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	draft, err := newFormUC(env.fixture).CreateTemplate(ctx, userAdmin, dto.TemplateRequest{TemplateName: "B", TemplateCode: "BORRADOR", TemplateType: entity.TemplateMonthly})
	require.NoError(t, err)

	_, err = env.uc.Create(ctx, env.admin, dto.CreateSubmissionRequest{TemplateID: draft.ID, TenantID: tenantF1, ReportingYear: 2025, ReportingMonth: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmissionSaveResponses_ConvierteYPuntua(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	sub := env.draft(t)

	err := env.uc.SaveResponses(ctx, env.local, sub.ID, dto.SaveResponsesRequest{Responses: []dto.ResponseInput{
		{ItemID: env.tpl.Hours, Value: strp("12.5")},
		{ItemID: env.tpl.Rating, OptionID: strp(env.tpl.Good)},
	}})
	require.NoError(t, err)

	got, err := env.uc.Get(ctx, env.local, sub.ID)
	require.NoError(t, err)
	require.Len(t, got.Answers, 2)
	assert.Equal(t, "12.5", got.Answers[0].DisplayValue)
	assert.Equal(t, "good", got.Answers[1].DisplayValue)
	require.NotNil(t, got.OverallScore)
	assert.Equal(t, "90", got.OverallScore.String())
}

func TestSubmissionSaveResponses_ValorInvalidoNoGuardaNada(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	sub := env.draft(t)

	err := env.uc.SaveResponses(ctx, env.local, sub.ID, dto.SaveResponsesRequest{Responses: []dto.ResponseInput{
		{ItemID: env.tpl.Rating, OptionID: strp(env.tpl.Good)},
		{ItemID: env.tpl.Hours, Value: strp("doce")},
		{ItemID: env.tpl.Attachment, Value: strp("x.pdf")},
	}})
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Empty(t, env.store.Submissions.Responses[sub.ID])
}

func TestSubmissionUploadFile_ReemplazaAdjunto(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	sub := env.draft(t)

	_, err := env.uc.UploadFile(ctx, env.local, sub.ID, env.tpl.Hours, "a.pdf", "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "ítem numérico")

	first, err := env.uc.UploadFile(ctx, env.local, sub.ID, env.tpl.Attachment, "acta final.pdf", "application/pdf", []byte("v1"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Key, "submissions/"+sub.ID+"/"+env.tpl.Attachment+"/"))
	assert.True(t, strings.HasSuffix(first.Key, "-acta_final.pdf"))

	second, err := env.uc.UploadFile(ctx, env.local, sub.ID, env.tpl.Attachment, "acta.pdf", "application/pdf", []byte("v2"))
	require.NoError(t, err)
	assert.NotContains(t, env.storage.Objects, first.Key)
	assert.Contains(t, env.storage.Objects, second.Key)

	data, contentType, name, err := env.uc.DownloadFile(ctx, env.local, sub.ID, env.tpl.Attachment)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasSuffix(name, "-acta.pdf"))

	require.NoError(t, env.uc.Delete(ctx, env.local, sub.ID))
	assert.Empty(t, env.storage.Objects)
}

func TestSubmissionSubmit_SinAprobacionPueblaMetricas(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	sub := env.draft(t)

	_, err := env.uc.Submit(ctx, env.local, sub.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "falta el campo obligatorio")

	require.NoError(t, env.uc.SaveResponses(ctx, env.local, sub.ID, dto.SaveResponsesRequest{Responses: []dto.ResponseInput{{ItemID: env.tpl.Hours, Value: strp("8")}}}))
	out, err := env.uc.Submit(ctx, env.local, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionSubmitted, out.Status)
	require.NotNil(t, out.SubmittedBy)
	assert.Equal(t, userLocal, *out.SubmittedBy)
	assert.Equal(t, []string{sub.ID}, env.populator.IDs)

	err = env.uc.SaveResponses(ctx, env.local, sub.ID, dto.SaveResponsesRequest{Responses: []dto.ResponseInput{{ItemID: env.tpl.Hours, Value: strp("9")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, env.uc.Delete(ctx, env.local, sub.ID), domain.ErrInvalidTransition)
}

func TestSubmissionReview_AprobacionYRechazo(t *testing.T) {
	env := newSubmissionEnv(t, true)
	ctx := context.Background()
	sub := env.draft(t)
	require.NoError(t, env.uc.SaveResponses(ctx, env.local, sub.ID, dto.SaveResponsesRequest{Responses: []dto.ResponseInput{{ItemID: env.tpl.Hours, Value: strp("8")}}}))

	out, err := env.uc.Submit(ctx, env.local, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionInApproval, out.Status)
	assert.Empty(t, env.populator.IDs, "en aprobación no se puebla")

	_, err = env.uc.Review(ctx, env.admin, sub.ID, dto.ReviewRequest{Approve: false})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "rechazo sin comentarios")

	out, err = env.uc.Review(ctx, env.admin, sub.ID, dto.ReviewRequest{Approve: false, Comments: "faltan horas extra"})
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionRejected, out.Status)

	_, err = env.uc.Submit(ctx, env.local, sub.ID)
	require.NoError(t, err)
	env.populator.Err = errors.New("bd caída")
	out, err = env.uc.Review(ctx, env.admin, sub.ID, dto.ReviewRequest{Approve: true})
	require.NoError(t, err, "la población fallida no revierte la aprobación")
	assert.Equal(t, entity.SubmissionApproved, out.Status)
	assert.Equal(t, []string{sub.ID}, env.populator.IDs)

	_, err = env.uc.Review(ctx, env.admin, sub.ID, dto.ReviewRequest{Approve: true})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSubmissionList_Alcance(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	env.draft(t)
	_, err := env.uc.Create(ctx, env.admin, dto.CreateSubmissionRequest{TemplateID: env.tpl.ID, TenantID: tenantHO, ReportingYear: 2025, ReportingMonth: 3})
	require.NoError(t, err)

	all, err := env.uc.List(ctx, env.admin, dto.SubmissionListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Page.Total)

	own, err := env.uc.List(ctx, env.local, dto.SubmissionListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, own.Page.Total)

	_, err = env.uc.List(ctx, env.local, dto.SubmissionListRequest{TenantID: tenantHO})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubmissionBreakdownYRendimiento(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	sub := env.draft(t)
	require.NoError(t, env.uc.SaveResponses(ctx, env.local, sub.ID, dto.SaveResponsesRequest{Responses: []dto.ResponseInput{
		{ItemID: env.tpl.Hours, Value: strp("10")},
		{ItemID: env.tpl.Rating, OptionID: strp(env.tpl.Bad)},
	}}))
	_, err := env.uc.Submit(ctx, env.local, sub.ID)
	require.NoError(t, err)

	b, err := env.uc.Breakdown(ctx, env.local, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, b.OverallScore)
	assert.Equal(t, "20", b.OverallScore.String())
	require.Len(t, b.Sections, 1)

	perf, err := env.uc.FieldPerformance(ctx, env.admin, env.tpl.ID)
	require.NoError(t, err)
	require.Len(t, perf, 3)
	assert.Equal(t, "HOURS", perf[0].ItemCode)
	assert.Equal(t, 1, perf[0].ResponseCount)
	require.NotNil(t, perf[0].Average)
	assert.Equal(t, "10", perf[0].Average.String())
}

func TestSubmissionCreate_RequiereAsignacionVigente(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()

	_, err := env.assign.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: env.tpl.ID, AssignmentType: entity.AssignSpecificTenant, TenantID: strp(tenantHO)})
	require.NoError(t, err)

	req := dto.CreateSubmissionRequest{TemplateID: env.tpl.ID, TenantID: tenantF1, ReportingYear: 2025, ReportingMonth: 3}
	_, err = env.uc.Create(ctx, env.local, req)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.assign.Create(ctx, userAdmin, dto.AssignmentRequest{TemplateID: env.tpl.ID, AssignmentType: entity.AssignDepartment, DepartmentID: strp(deptICT)})
	require.NoError(t, err)
	env.local.DepartmentID = deptICT

	out, err := env.uc.Create(ctx, env.local, req)
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionDraft, out.Status)
}

func TestSubmissionSubmit_PlazoCerradoYEnvioTardio(t *testing.T) {
	env := newSubmissionEnv(t, false)
	ctx := context.Background()
	sub := env.draft(t)
	require.NoError(t, env.uc.SaveResponses(ctx, env.local, sub.ID, dto.SaveResponsesRequest{Responses: []dto.ResponseInput{
		{ItemID: env.tpl.Hours, Value: strp("8")},
	}}))

	rule, err := env.rules.Create(ctx, userAdmin, env.tpl.ID, dto.SubmissionRuleRequest{
		RuleName:            "Cierre mensual",
		Frequency:           entity.RuleMonthly,
		DueDay:              intp(10),
		AllowLateSubmission: boolp(false),
	})
	require.NoError(t, err)

	_, err = env.uc.Submit(ctx, env.local, sub.ID)
	assert.ErrorIs(t, err, domain.ErrSubmissionClosed)
	got, err := env.uc.Get(ctx, env.local, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionDraft, got.Status)

	_, err = env.rules.Update(ctx, rule.ID, dto.SubmissionRuleRequest{
		RuleName:            "Cierre mensual",
		Frequency:           entity.RuleMonthly,
		DueDay:              intp(10),
		AllowLateSubmission: boolp(true),
	})
	require.NoError(t, err)

	out, err := env.uc.Submit(ctx, env.local, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionSubmitted, out.Status)
	assert.True(t, out.IsLate)
}
