package forms_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

// ── NextDueDate ──────────────────────────────────────────────────────────────

func TestNextDueDate_Frecuencias(t *testing.T) {
	base := utc(2025, time.March, 12, 8, 0) // miércoles

	tests := []struct {
		name string
		rule entity.SubmissionRule
		base time.Time
		want *time.Time
	}{
		{"diaria pasada la hora", entity.SubmissionRule{Frequency: entity.RuleDaily, DueTime: strp("07:30")}, base, ptr(utc(2025, time.March, 13, 7, 30))},
		{"diaria antes de la hora", entity.SubmissionRule{Frequency: entity.RuleDaily, DueTime: strp("18:00")}, base, ptr(utc(2025, time.March, 12, 18, 0))},
		{"semanal lunes", entity.SubmissionRule{Frequency: entity.RuleWeekly, DueDay: intp(1)}, base, ptr(utc(2025, time.March, 17, 0, 0))},
		{"semanal mismo día más tarde", entity.SubmissionRule{Frequency: entity.RuleWeekly, DueDay: intp(3), DueTime: strp("09:00")}, base, ptr(utc(2025, time.March, 12, 9, 0))},
		{"semanal mismo día vencido", entity.SubmissionRule{Frequency: entity.RuleWeekly, DueDay: intp(3), DueTime: strp("07:00")}, base, ptr(utc(2025, time.March, 19, 7, 0))},
		{"mensual pasa al mes siguiente", entity.SubmissionRule{Frequency: entity.RuleMonthly, DueDay: intp(10), DueTime: strp("17:00")}, base, ptr(utc(2025, time.April, 10, 17, 0))},
		{"mensual último día bisiesto", entity.SubmissionRule{Frequency: entity.RuleMonthly, DueDay: intp(entity.LastDayOfMonth)}, utc(2024, time.February, 10, 0, 0), ptr(utc(2024, time.February, 29, 0, 0))},
		{"mensual día 31 salta abril", entity.SubmissionRule{Frequency: entity.RuleMonthly, DueDay: intp(31)}, utc(2025, time.April, 5, 0, 0), ptr(utc(2025, time.May, 31, 0, 0))},
		{"mensual día 31 sin mes siguiente", entity.SubmissionRule{Frequency: entity.RuleMonthly, DueDay: intp(31)}, utc(2025, time.March, 31, 12, 0), nil},
		{"trimestral dentro del trimestre", entity.SubmissionRule{Frequency: entity.RuleQuarterly, DueDay: intp(15)}, utc(2025, time.May, 20, 0, 0), ptr(utc(2025, time.June, 15, 0, 0))},
		{"trimestral cruza el año", entity.SubmissionRule{Frequency: entity.RuleQuarterly, DueDay: intp(15)}, utc(2025, time.December, 20, 0, 0), ptr(utc(2026, time.January, 15, 0, 0))},
		{"anual al año siguiente", entity.SubmissionRule{Frequency: entity.RuleAnnually, DueDay: intp(31), DueMonth: intp(3)}, utc(2025, time.April, 1, 0, 0), ptr(utc(2026, time.March, 31, 0, 0))},
		{"sin frecuencia", entity.SubmissionRule{}, base, nil},
		{"semanal sin día", entity.SubmissionRule{Frequency: entity.RuleWeekly}, base, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := forms.NextDueDate(&tt.rule, tt.base)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "esperado %s, obtenido %s", tt.want, got)
		})
	}
}

func TestNextDueDate_UnaVez(t *testing.T) {
	fecha := utc(2025, time.June, 30, 23, 59)
	got := forms.NextDueDate(&entity.SubmissionRule{Frequency: entity.RuleOnce, SpecificDueDate: &fecha}, utc(2025, time.July, 2, 0, 0))
	require.NotNil(t, got)
	assert.True(t, fecha.Equal(*got))
}

func ptr(t time.Time) *time.Time { return &t }

// ── ValidateSubmissionRule ─────────────────────────────────────────────────────────────

func TestValidateRule_CoherenciaPorFrecuencia(t *testing.T) {
	tests := []struct {
		name  string
		rule  entity.SubmissionRule
		field string
	}{
		{"semanal día fuera de rango", entity.SubmissionRule{RuleName: "R", Frequency: entity.RuleWeekly, DueDay: intp(7)}, "due_day"},
		{"mensual sin día", entity.SubmissionRule{RuleName: "R", Frequency: entity.RuleMonthly}, "due_day"},
		{"anual sin mes", entity.SubmissionRule{RuleName: "R", Frequency: entity.RuleAnnually, DueDay: intp(1)}, "due_month"},
		{"una vez sin fecha", entity.SubmissionRule{RuleName: "R", Frequency: entity.RuleOnce}, "specific_due_date"},
		{"frecuencia desconocida", entity.SubmissionRule{RuleName: "R", Frequency: "Hourly"}, "frequency"},
		{"hora inválida", entity.SubmissionRule{RuleName: "R", Frequency: entity.RuleDaily, DueTime: strp("25:99")}, "due_time"},
		{"recordatorios inválidos", entity.SubmissionRule{RuleName: "R", ReminderDaysBefore: "7,x"}, "reminder_days_before"},
		{"sin nombre", entity.SubmissionRule{Frequency: entity.RuleDaily}, "rule_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := forms.ValidateSubmissionRule(&tt.rule)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			var verrs domain.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}

	ok := entity.SubmissionRule{RuleName: "Cierre", Frequency: entity.RuleMonthly, DueDay: intp(entity.LastDayOfMonth), DueTime: strp("18:00"), ReminderDaysBefore: "7, 3,1"}
	assert.NoError(t, forms.ValidateSubmissionRule(&ok))
}

// ── EvaluateTiming ───────────────────────────────────────────────────────────

func TestEvaluateTiming_PeriodoYGracia(t *testing.T) {
	rule := &entity.SubmissionRule{Frequency: entity.RuleMonthly, DueDay: intp(10), DueTime: strp("17:00"), GracePeriodDays: 3}

	due := forms.PeriodDueDate(rule, 2025, 2)
	require.NotNil(t, due)
	assert.True(t, utc(2025, time.March, 10, 17, 0).Equal(*due))

	onTime := forms.EvaluateTiming(rule, 2025, 2, utc(2025, time.March, 9, 12, 0))
	assert.True(t, onTime.CanSubmit)
	assert.False(t, onTime.IsLate)

	grace := forms.EvaluateTiming(rule, 2025, 2, utc(2025, time.March, 12, 10, 0))
	assert.True(t, grace.CanSubmit)
	assert.True(t, grace.IsLate)
	assert.True(t, grace.WithinGrace)
	require.NotNil(t, grace.GracePeriodEnd)
	assert.True(t, utc(2025, time.March, 13, 17, 0).Equal(*grace.GracePeriodEnd))

	late := forms.EvaluateTiming(rule, 2025, 2, utc(2025, time.March, 14, 0, 0))
	assert.False(t, late.CanSubmit)
	assert.False(t, late.WithinGrace)
	assert.Contains(t, late.Message, "2025-03-10 17:00")

	rule.AllowLateSubmission = true
	allowed := forms.EvaluateTiming(rule, 2025, 2, utc(2025, time.March, 14, 0, 0))
	assert.True(t, allowed.CanSubmit)
	assert.True(t, allowed.IsLate)
}

func TestEvaluateTiming_SinRegla(t *testing.T) {
	assert.True(t, forms.EvaluateTiming(nil, 2025, 2, time.Now()).CanSubmit)
	assert.True(t, forms.EvaluateTiming(&entity.SubmissionRule{}, 2025, 2, time.Now()).CanSubmit)
}

// ── NeedsReminder ────────────────────────────────────────────────────────────

func TestNeedsReminder_DiasAntesDelVencimiento(t *testing.T) {
	rule := &entity.SubmissionRule{Frequency: entity.RuleMonthly, DueDay: intp(10), Status: entity.RuleActive, ReminderDaysBefore: "7,1"}

	assert.True(t, forms.NeedsReminder(rule, utc(2025, time.March, 3, 9, 0)))
	assert.True(t, forms.NeedsReminder(rule, utc(2025, time.March, 9, 9, 0)))
	assert.False(t, forms.NeedsReminder(rule, utc(2025, time.March, 5, 9, 0)))

	rule.Status = entity.RuleSuspended
	assert.False(t, forms.NeedsReminder(rule, utc(2025, time.March, 3, 9, 0)))
}
