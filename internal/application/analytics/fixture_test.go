package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/apptest"
	"github.com/jhoicas/form-reporting-api/internal/application/scope"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	regionNorte = "11111111-1111-1111-1111-111111111111"
	regionSur   = "22222222-2222-2222-2222-222222222222"
	tenantHO    = "33333333-3333-3333-3333-333333333333"
	tenantF1    = "44444444-4444-4444-4444-444444444444"
	templateID  = "55555555-5555-5555-5555-555555555555"
	sectionID   = "66666666-6666-6666-6666-666666666666"
	itemID      = "77777777-7777-7777-7777-777777777777"
)

func strp(s string) *string { return &s }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// marzo 2025: ho con un envío aprobado (90) y un borrador; f1 con uno enviado (40) y uno rechazado.
var day = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *apptest.Store
	scope *scope.Service
	admin *access.Claims
	local *access.Claims
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := apptest.NewStore()
	f := &fixture{
		store: s,
		scope: scope.NewService(s.Tenants, s.Departments, s.Regions, s.Users),
		admin: &access.Claims{UserID: "admin", TenantID: tenantHO, ScopeCode: entity.ScopeGlobal, TenantAccess: "*"},
		local: &access.Claims{UserID: "local", TenantID: tenantF1, ScopeCode: entity.ScopeTenant, TenantAccess: access.Format(access.PrefixTenant, tenantF1)},
	}
	require.NoError(t, s.Regions.Create(ctx, &entity.Region{ID: regionNorte, RegionNumber: 1, RegionCode: "NOR", RegionName: "Norte", IsActive: true}))
	require.NoError(t, s.Regions.Create(ctx, &entity.Region{ID: regionSur, RegionNumber: 2, RegionCode: "SUR", RegionName: "Sur", IsActive: true}))
	require.NoError(t, s.Tenants.Create(ctx, &entity.Tenant{ID: tenantHO, TenantType: entity.TenantHeadOffice, TenantCode: "HO", TenantName: "Casa Matriz", RegionID: strp(regionNorte), IsActive: true}))
	require.NoError(t, s.Tenants.Create(ctx, &entity.Tenant{ID: tenantF1, TenantType: entity.TenantFactory, TenantCode: "F1", TenantName: "Fábrica Uno", RegionID: strp(regionSur), IsActive: true}))

	require.NoError(t, s.Templates.Create(ctx, &entity.FormTemplate{ID: templateID, TemplateCode: "AUD", TemplateName: "Auditoría", Version: 1, PublishStatus: entity.PublishPublished, IsActive: true}))
	require.NoError(t, s.Templates.CreateSection(ctx, &entity.FormSection{ID: sectionID, TemplateID: templateID, SectionName: "Seguridad", DisplayOrder: 1, Weight: decimal.NewFromInt(1), IsActive: true}))
	require.NoError(t, s.Templates.CreateItem(ctx, &entity.FormItem{ID: itemID, TemplateID: templateID, SectionID: sectionID, ItemCode: "PUNTAJE", ItemName: "Puntaje", DataType: entity.DataTypeNumber, Weight: decimal.NewFromInt(1), IsActive: true}))

	f.submission(t, tenantHO, "Casa Matriz", entity.SubmissionApproved, 3, "90")
	f.submission(t, tenantHO, "Casa Matriz", entity.SubmissionDraft, 2, "")
	f.submission(t, tenantF1, "Fábrica Uno", entity.SubmissionSubmitted, 3, "40")
	f.submission(t, tenantF1, "Fábrica Uno", entity.SubmissionRejected, 2, "")
	return f
}

// submission envío de 2025 creado en day; score vacío = sin respuesta.
func (f *fixture) submission(t *testing.T, tenantID, tenantName, status string, month int, score string) {
	t.Helper()
	ctx := context.Background()
	sub := &entity.FormSubmission{
		TemplateID:     templateID,
		TenantID:       strp(tenantID),
		TenantName:     tenantName,
		TemplateName:   "Auditoría",
		ReportingYear:  2025,
		ReportingMonth: month,
		Status:         status,
		CreatedAt:      day,
	}
	if status != entity.SubmissionDraft {
		at := day
		sub.SubmittedAt = &at
	}
	require.NoError(t, f.store.Submissions.Create(ctx, sub))
	if score != "" {
		require.NoError(t, f.store.Submissions.UpsertResponse(ctx, &entity.FormResponse{
			SubmissionID:  sub.ID,
			ItemID:        itemID,
			NumericValue:  dec(score),
			WeightedScore: dec(score),
		}))
	}
}
