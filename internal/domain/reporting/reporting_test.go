package reporting_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/reporting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }
func strp(s string) *string { return &s }

// ── Programación ─────────────────────────────────────────────────────────────

func TestNextRun_Diario(t *testing.T) {
	s := &entity.ReportSchedule{ScheduleType: entity.ScheduleDaily, ExecutionTime: "08:30", Timezone: "UTC"}

	before := time.Date(2025, 5, 10, 7, 0, 0, 0, time.UTC)
	got, err := reporting.NextRun(s, before, "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC), got)

	after := time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)
	got, err = reporting.NextRun(s, after, "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 11, 8, 30, 0, 0, time.UTC), got, "la misma hora pasa al día siguiente")
}

func TestNextRun_SemanalEnZonaHoraria(t *testing.T) {
	// 2025-05-10 es sábado. Lunes = 1.
	s := &entity.ReportSchedule{ScheduleType: entity.ScheduleWeekly, DayOfWeek: intp(1), ExecutionTime: "09:00", Timezone: "Africa/Nairobi"}
	got, err := reporting.NextRun(s, time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	// 09:00 EAT (UTC+3) = 06:00 UTC
	assert.Equal(t, time.Date(2025, 5, 12, 6, 0, 0, 0, time.UTC), got)
}

func TestNextRun_MensualAjustaFinDeMes(t *testing.T) {
	s := &entity.ReportSchedule{ScheduleType: entity.ScheduleMonthly, DayOfMonth: intp(31), ExecutionTime: "00:00"}
	got, err := reporting.NextRun(s, time.Date(2025, 3, 31, 1, 0, 0, 0, time.UTC), "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), got)
}

func TestValidateSchedule(t *testing.T) {
	ok := &entity.ReportSchedule{ScheduleType: entity.ScheduleDaily, ExecutionTime: "07:15", OutputFormat: entity.FormatPDF}
	assert.NoError(t, reporting.ValidateSchedule(ok, "UTC"))

	bad := &entity.ReportSchedule{ScheduleType: entity.ScheduleWeekly, ExecutionTime: "25:00", Timezone: "Mars/Base", OutputFormat: "DOCX"}
	err := reporting.ValidateSchedule(bad, "UTC")
	require.Error(t, err)
	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 4)
}

// ── Definiciones ─────────────────────────────────────────────────────────────

func TestValidateDefinition(t *testing.T) {
	def := &entity.ReportDefinition{
		ReportName: "Cumplimiento",
		ReportCode: "CUMPL",
		ReportType: entity.ReportTabular,
		TemplateID: strp("tpl"),
		Fields: []entity.ReportField{
			{ColumnRef: entity.ColumnRef{SourceType: entity.ColumnSystem, SystemFieldName: entity.SysTenantName}},
			{ColumnRef: entity.ColumnRef{SourceType: entity.ColumnFormItem, ItemID: strp("i1")}, AggregationType: entity.AggAvg},
		},
		Filters: []entity.ReportFilter{
			{ColumnRef: entity.ColumnRef{SourceType: entity.ColumnSystem, SystemFieldName: entity.SysReportingYear}, Operator: entity.OpEquals, FilterValue: "2025"},
		},
	}
	assert.NoError(t, reporting.ValidateDefinition(def))

	def.TemplateID = nil
	def.Filters[0].Operator = "Like"
	def.Fields = append(def.Fields, entity.ReportField{ColumnRef: entity.ColumnRef{SourceType: entity.ColumnSystem, SystemFieldName: "password"}})
	err := reporting.ValidateDefinition(def)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "template_id")
	assert.Contains(t, err.Error(), "filters[0].operator")
	assert.Contains(t, err.Error(), "fields[2]")
}

func TestResolveFilterValue(t *testing.T) {
	f := entity.ReportFilter{ID: "f1", IsParameterized: true, DefaultValue: "2024", IsRequired: true, Operator: entity.OpEquals}

	v, err := reporting.ResolveFilterValue(f, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024", v)

	v, err = reporting.ResolveFilterValue(f, map[string]string{"f1": "2025"})
	require.NoError(t, err)
	assert.Equal(t, "2025", v)

	f.DefaultValue = ""
	_, err = reporting.ResolveFilterValue(f, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSplitValues(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, reporting.SplitValues(" a, b ,,c "))
	assert.Nil(t, reporting.SplitValues(""))
}

// ── Acceso y cache ───────────────────────────────────────────────────────────

func TestEffectivePermission(t *testing.T) {
	now := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	r := &entity.ReportDefinition{ID: "r1", OwnerUserID: "owner"}
	grants := []*entity.ReportAccessControl{
		{AccessType: entity.AccessUser, UserID: strp("ana"), PermissionLevel: entity.PermissionView, IsActive: true},
		{AccessType: entity.AccessRole, RoleID: strp("auditor"), PermissionLevel: entity.PermissionRun, IsActive: true},
		{AccessType: entity.AccessDepartment, DepartmentID: strp("ict"), PermissionLevel: entity.PermissionEdit, IsActive: true, ExpiryDate: &past},
		{AccessType: entity.AccessUser, UserID: strp("luis"), PermissionLevel: entity.PermissionEdit, IsActive: false},
	}

	cases := []struct {
		name string
		g    reporting.Grantee
		want string
	}{
		{"dueño", reporting.Grantee{UserID: "owner"}, entity.PermissionEdit},
		{"administrador", reporting.Grantee{UserID: "x", Manager: true}, entity.PermissionEdit},
		{"usuario", reporting.Grantee{UserID: "ana"}, entity.PermissionView},
		{"rol gana al usuario", reporting.Grantee{UserID: "ana", RoleIDs: []string{"auditor"}}, entity.PermissionRun},
		{"concesión vencida", reporting.Grantee{UserID: "x", DepartmentID: "ict"}, ""},
		{"concesión inactiva", reporting.Grantee{UserID: "luis"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reporting.EffectivePermission(r, tc.g, grants, now))
		})
	}

	public := &entity.ReportDefinition{ID: "r2", IsPublic: true}
	got := reporting.EffectivePermission(public, reporting.Grantee{UserID: "x"}, nil, now)
	assert.True(t, reporting.Allows(got, entity.PermissionRun))
	assert.False(t, reporting.Allows(got, entity.PermissionEdit))
	assert.False(t, reporting.Allows("", entity.PermissionView))
}

func TestCacheKey_EstableYSensibleAVersion(t *testing.T) {
	a := reporting.CacheKey("r1", 1, []string{"t2", "t1"}, map[string]string{"f1": "x", "f2": "y"})
	b := reporting.CacheKey("r1", 1, []string{"t1", "t2"}, map[string]string{"f2": "y", "f1": "x"})
	assert.Equal(t, a, b, "el orden no cambia la clave")
	assert.NotEqual(t, a, reporting.CacheKey("r1", 2, []string{"t1", "t2"}, map[string]string{"f1": "x", "f2": "y"}))
	assert.NotEqual(t, reporting.CacheKey("r1", 1, nil, nil), reporting.CacheKey("r1", 1, []string{}, nil), "todos ≠ ninguno")
	assert.True(t, strings.HasPrefix(a, reporting.CacheKeyPrefix("r1")))
}

func TestFormatCell(t *testing.T) {
	at := time.Date(2025, 3, 9, 14, 5, 0, 0, time.UTC)
	cases := []struct {
		v      any
		format string
		want   string
	}{
		{nil, "N2", ""},
		{decimal.RequireFromString("12.345"), "N2", "12.35"},
		{decimal.RequireFromString("0.755"), "P1", "75.5%"},
		{int64(7), "", "7"},
		{3.5, "N0", "4"},
		{at, "dd/MM/yyyy", "09/03/2025"},
		{at, "", "2025-03-09 14:05:00"},
		{time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), "", "2025-03-09"},
		{true, "", "Yes"},
		{"Fábrica", "N2", "Fábrica"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, reporting.FormatCell(c.v, c.format), "%v %q", c.v, c.format)
	}
}
