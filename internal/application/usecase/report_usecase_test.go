package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/apptest"
	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportEnv struct {
	*fixture
	uc      *usecase.ReportUseCase
	query   *apptest.ReportQuery
	cache   *apptest.ReportCache
	storage *apptest.Storage
	tpl     seededTemplate
	manager *access.Claims
}

func newReportEnv(t *testing.T) *reportEnv {
	t.Helper()
	f := newFixture(t)
	env := &reportEnv{
		fixture: f,
		query: &apptest.ReportQuery{Result: &entity.ReportResult{
			Columns: []entity.ReportColumn{{Key: "c0", Label: "Tenant"}, {Key: "c1", Label: "Horas"}},
			Rows:    [][]any{{"Fábrica Uno", 8}, {"Fábrica Uno", 6}},
		}},
		cache:   apptest.NewReportCache(),
		storage: apptest.NewStorage(),
	}
	manager := *f.admin
	manager.Roles = []string{entity.RoleSystemAdmin}
	env.manager = &manager

	s := f.store
	exporters := []ports.ReportExporter{
		apptest.Exporter{Name: entity.FormatCSV},
		apptest.Exporter{Name: entity.FormatExcel},
		apptest.Exporter{Name: entity.FormatPDF},
	}
	env.uc = usecase.NewReportUseCase(s.Reports, env.query, s.Templates, s.Metrics, s.Users, f.scope, env.cache, env.storage, exporters,
		usecase.ReportConfig{MaxRows: 100, DefaultTimezone: "UTC"})
	env.tpl = seedTemplate(t, f, "REP", false)
	return env
}

func (e *reportEnv) request(code string) dto.ReportRequest {
	return dto.ReportRequest{
		ReportName: "Horas por tenant " + code,
		ReportCode: code,
		TemplateID: &e.tpl.ID,
		ReportType: entity.ReportTabular,
		Fields: []dto.ReportFieldInput{
			{ColumnInput: dto.ColumnInput{SourceType: entity.ColumnSystem, SystemFieldName: entity.SysTenantName}},
			{ColumnInput: dto.ColumnInput{SourceType: entity.ColumnFormItem, ItemID: &e.tpl.Hours}, DisplayName: "Horas", DisplayOrder: 1},
		},
		Filters: []dto.ReportFilterInput{{
			ColumnInput:     dto.ColumnInput{SourceType: entity.ColumnSystem, SystemFieldName: entity.SysReportingYear},
			Operator:        entity.OpEquals,
			IsRequired:      true,
			IsParameterized: true,
			ParameterLabel:  "Año",
		}},
	}
}

func (e *reportEnv) create(t *testing.T, c *access.Claims, code string) *dto.ReportResponse {
	t.Helper()
	out, err := e.uc.Create(context.Background(), c, e.request(code))
	require.NoError(t, err)
	return out
}

func params(out *dto.ReportResponse, year string) map[string]string {
	return map[string]string{out.Filters[0].ID: year}
}

func TestReportCreate_ValidaDefinicionYCodigo(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()

	out := env.create(t, env.local, " horas ")
	assert.Equal(t, "HORAS", out.ReportCode)
	assert.Equal(t, userLocal, out.OwnerUserID)
	assert.Equal(t, 1, out.Version)
	assert.Equal(t, entity.PermissionEdit, out.Permission)
	require.Len(t, out.Fields, 2)
	assert.True(t, out.Fields[0].IsVisible)

	_, err := env.uc.Create(ctx, env.local, env.request("HORAS"))
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "report_code", verrs[0].Field)

	sinPlantilla := env.request("OTRO")
	sinPlantilla.TemplateID = nil
	_, err = env.uc.Create(ctx, env.local, sinPlantilla)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "los campos de formulario requieren plantilla")

	malOperador := env.request("OTRO")
	malOperador.Filters[0].Operator = "Like"
	_, err = env.uc.Create(ctx, env.local, malOperador)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportPermisos_ConcesionesPorUsuarioYRol(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	rep := env.create(t, env.local, "PRIV")

	_, err := env.uc.Get(ctx, env.admin, rep.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin concesión el reporte no es visible")
	list, err := env.uc.List(ctx, env.admin, dto.ReportListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	view, err := env.uc.GrantAccess(ctx, env.local, rep.ID, dto.ReportAccessRequest{AccessType: entity.AccessUser, UserID: strp(userAdmin), PermissionLevel: entity.PermissionView})
	require.NoError(t, err)
	got, err := env.uc.Get(ctx, env.admin, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PermissionView, got.Permission)
	_, err = env.uc.Run(ctx, env.admin, rep.ID, dto.RunReportRequest{Parameters: params(rep, "2025")})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	const auditor = "88888888-8888-8888-8888-888888888888"
	require.NoError(t, env.store.Users.ReplaceRoles(ctx, userAdmin, []string{auditor}, userAdmin))
	_, err = env.uc.GrantAccess(ctx, env.local, rep.ID, dto.ReportAccessRequest{AccessType: entity.AccessRole, RoleID: strp(auditor), PermissionLevel: entity.PermissionRun})
	require.NoError(t, err)
	_, err = env.uc.Run(ctx, env.admin, rep.ID, dto.RunReportRequest{Parameters: params(rep, "2025")})
	assert.NoError(t, err)

	_, err = env.uc.GrantAccess(ctx, env.admin, rep.ID, dto.ReportAccessRequest{AccessType: entity.AccessUser, UserID: strp(userAdmin), PermissionLevel: entity.PermissionEdit})
	assert.ErrorIs(t, err, domain.ErrForbidden, "solo quien edita concede")

	_, err = env.uc.GrantAccess(ctx, env.local, rep.ID, dto.ReportAccessRequest{AccessType: entity.AccessDepartment, PermissionLevel: entity.PermissionView})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, env.uc.RevokeAccess(ctx, env.local, rep.ID, view.ID))
	grants, err := env.uc.AccessList(ctx, env.local, rep.ID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.False(t, grants[0].IsActive)

	list, err = env.uc.List(ctx, env.manager, dto.ReportListRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1, "el administrador ve todos los reportes")
}

func TestReportRun_AlcanceCacheYVersion(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	rep := env.create(t, env.local, "RUN")

	_, err := env.uc.Run(ctx, env.local, rep.ID, dto.RunReportRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "falta el parámetro requerido")
	assert.Empty(t, env.query.Queries)

	first, err := env.uc.Run(ctx, env.local, rep.ID, dto.RunReportRequest{Parameters: params(rep, "2025")})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 2, first.RowCount)
	require.Len(t, env.query.Queries, 1)
	assert.Equal(t, []string{tenantF1}, env.query.Queries[0].TenantIDs)
	assert.Equal(t, 100, env.query.Queries[0].MaxRows)

	second, err := env.uc.Run(ctx, env.local, rep.ID, dto.RunReportRequest{Parameters: params(rep, "2025")})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Len(t, env.query.Queries, 1)

	_, err = env.uc.Run(ctx, env.local, rep.ID, dto.RunReportRequest{Parameters: params(rep, "2024")})
	require.NoError(t, err)
	assert.Len(t, env.query.Queries, 2, "otros parámetros, otra entrada de cache")

	updated, err := env.uc.Update(ctx, env.local, rep.ID, env.request("RUN"))
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Empty(t, env.cache.Items)

	_, err = env.uc.Run(ctx, env.local, rep.ID, dto.RunReportRequest{Parameters: params(updated, "2025")})
	require.NoError(t, err)
	assert.Len(t, env.query.Queries, 3)

	got, err := env.uc.Get(ctx, env.local, rep.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.RunCount)
	assert.NotNil(t, got.LastRunAt)

	logs, err := env.uc.Executions(ctx, env.local, rep.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, entity.ExecutionManual, logs[0].ExecutionType)
	assert.True(t, logs[2].FromCache)
}

func TestReportRun_FallaQuedaRegistrada(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	rep := env.create(t, env.local, "FAIL")
	env.query.Err = errors.New("timeout")

	_, err := env.uc.Run(ctx, env.local, rep.ID, dto.RunReportRequest{Parameters: params(rep, "2025")})
	require.Error(t, err)
	require.Len(t, env.store.Reports.Executions, 1)
	assert.Equal(t, entity.ExecutionFailed, env.store.Reports.Executions[0].Status)
	assert.Equal(t, "timeout", env.store.Reports.Executions[0].ErrorMessage)
	assert.Empty(t, env.cache.Items)
}

func TestReportExport_Formatos(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	rep := env.create(t, env.local, "EXP")

	file, err := env.uc.Export(ctx, env.local, rep.ID, dto.ExportReportRequest{
		RunReportRequest: dto.RunReportRequest{Parameters: params(rep, "2025")},
		Format:           entity.FormatExcel,
	})
	require.NoError(t, err)
	assert.Equal(t, "EXP:2", string(file.Data))
	assert.True(t, strings.HasPrefix(file.FileName, "exp_"))
	assert.True(t, strings.HasSuffix(file.FileName, ".excel"))

	l := env.store.Reports.Executions[0]
	assert.Equal(t, entity.ExecutionExport, l.ExecutionType)
	assert.Equal(t, entity.FormatExcel, l.OutputFormat)
	require.NotNil(t, l.OutputSizeKB)
	assert.Equal(t, 1, *l.OutputSizeKB)

	_, err = env.uc.Export(ctx, env.local, rep.ID, dto.ExportReportRequest{Format: "XML"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReportSchedule_EjecutaYGuardaSalida(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	rep := env.create(t, env.local, "SCH")

	_, err := env.uc.CreateSchedule(ctx, env.local, rep.ID, dto.ScheduleRequest{ScheduleName: "semanal", ScheduleType: entity.ScheduleWeekly, ExecutionTime: "08:00", OutputFormat: entity.FormatCSV})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "semanal sin día")

	created, err := env.uc.CreateSchedule(ctx, env.local, rep.ID, dto.ScheduleRequest{ScheduleName: "diario", ScheduleType: entity.ScheduleDaily, ExecutionTime: "08:00", OutputFormat: entity.FormatPDF})
	require.NoError(t, err)
	require.NotNil(t, created.NextRunAt)
	assert.True(t, created.NextRunAt.After(time.Now()))
	assert.Equal(t, "UTC", created.Timezone)

	// El filtro requerido sin valor hace fallar la corrida programada.
	s, err := env.store.Reports.GetSchedule(ctx, created.ID)
	require.NoError(t, err)
	err = env.uc.ExecuteSchedule(ctx, env.local, s)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	s, _ = env.store.Reports.GetSchedule(ctx, created.ID)
	assert.Equal(t, entity.ExecutionFailed, s.LastRunStatus)
	assert.NotEmpty(t, s.LastRunError)

	req := env.request("SCH")
	req.Filters[0].DefaultValue = "2025"
	_, err = env.uc.Update(ctx, env.local, rep.ID, req)
	require.NoError(t, err)

	require.NoError(t, env.uc.ExecuteSchedule(ctx, env.local, s))
	s, _ = env.store.Reports.GetSchedule(ctx, created.ID)
	assert.Equal(t, entity.ExecutionSuccess, s.LastRunStatus)
	assert.Empty(t, s.LastRunError)
	require.NotNil(t, s.LastRunAt)
	assert.True(t, s.NextRunAt.After(*s.LastRunAt))

	require.Len(t, env.storage.Objects, 1)
	for key := range env.storage.Objects {
		assert.True(t, strings.HasPrefix(key, "reports/"+rep.ID+"/"))
		assert.True(t, strings.HasSuffix(key, ".pdf"))
	}
	last := env.store.Reports.Executions[len(env.store.Reports.Executions)-1]
	assert.Equal(t, entity.ExecutionScheduled, last.ExecutionType)
	assert.Equal(t, created.ID, *last.ScheduleID)
	assert.NotEmpty(t, last.OutputPath)
}

func TestReportDelete_SistemaProtegido(t *testing.T) {
	env := newReportEnv(t)
	ctx := context.Background()
	sys := env.create(t, env.local, "SYS")
	env.store.Reports.Items[sys.ID].IsSystem = true

	err := env.uc.Delete(ctx, env.manager, sys.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	own := env.create(t, env.local, "OWN")
	require.NoError(t, env.uc.Delete(ctx, env.local, own.ID))
	_, err = env.uc.Get(ctx, env.local, own.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportOutputKey(t *testing.T) {
	at := time.Date(2025, 3, 9, 23, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	assert.Equal(t, "reports/r1/2025/03/e1.csv", usecase.ReportOutputKey("r1", at, "e1", "csv"))
}
