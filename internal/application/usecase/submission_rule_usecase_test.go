package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRuleCreate_ValidaFrecuencia(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewSubmissionRuleUseCase(f.store.Rules, f.store.Templates)
	tpl := seedTemplate(t, f, "REGLA", false)
	ctx := context.Background()

	_, err := uc.Create(ctx, userAdmin, tpl.ID, dto.SubmissionRuleRequest{RuleName: "Sin día", Frequency: entity.RuleMonthly})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, userAdmin, "99999999-9999-9999-9999-999999999999", dto.SubmissionRuleRequest{RuleName: "X", Frequency: entity.RuleDaily})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err := uc.Create(ctx, userAdmin, tpl.ID, dto.SubmissionRuleRequest{
		RuleName:           "Cierre",
		Frequency:          entity.RuleMonthly,
		DueDay:             intp(entity.LastDayOfMonth),
		DueTime:            strp("18:00"),
		GracePeriodDays:    2,
		ReminderDaysBefore: "7, 3,1",
	})
	require.NoError(t, err)
	assert.True(t, out.AllowLateSubmission)
	assert.Equal(t, entity.RuleActive, out.Status)
	assert.Equal(t, []int{7, 3, 1}, out.ReminderDays)
	require.NotNil(t, out.NextDueDate)

	list, err := uc.ListByTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSubmissionRuleTiming_GraciaYCierre(t *testing.T) {
	f := newFixture(t)
	uc := usecase.NewSubmissionRuleUseCase(f.store.Rules, f.store.Templates)
	tpl := seedTemplate(t, f, "PLAZO", false)
	ctx := context.Background()

	_, err := uc.Create(ctx, userAdmin, tpl.ID, dto.SubmissionRuleRequest{
		RuleName:            "Mensual",
		Frequency:           entity.RuleMonthly,
		DueDay:              intp(10),
		GracePeriodDays:     3,
		AllowLateSubmission: boolp(false),
	})
	require.NoError(t, err)

	at := time.Date(2025, 4, 12, 9, 0, 0, 0, time.UTC)
	grace, err := uc.Timing(ctx, tpl.ID, dto.TimingRequest{ReportingYear: 2025, ReportingMonth: 3, At: &at})
	require.NoError(t, err)
	assert.True(t, grace.CanSubmit)
	assert.True(t, grace.WithinGrace)

	late := time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC)
	closed, err := uc.Timing(ctx, tpl.ID, dto.TimingRequest{ReportingYear: 2025, ReportingMonth: 3, At: &late})
	require.NoError(t, err)
	assert.False(t, closed.CanSubmit)

	_, err = uc.CheckTiming(ctx, &entity.FormSubmission{TemplateID: tpl.ID, ReportingYear: 2025, ReportingMonth: 3}, late)
	assert.ErrorIs(t, err, domain.ErrSubmissionClosed)
	isLate, err := uc.CheckTiming(ctx, &entity.FormSubmission{TemplateID: tpl.ID, ReportingYear: 2025, ReportingMonth: 3}, at)
	require.NoError(t, err)
	assert.True(t, isLate)
}
