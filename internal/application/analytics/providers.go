package analytics

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/jhoicas/form-reporting-api/internal/domain/scoring"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.Spanish)
)

// formatCount entero con separador de miles.
func formatCount(n int) string { return printer.Sprintf("%d", n) }

// rateColor semáforo de porcentajes: ≥80 success, ≥50 warning.
func rateColor(v decimal.Decimal) string {
	switch {
	case v.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return "success"
	case v.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return "warning"
	}
	return "danger"
}

// trend variación porcentual contra el período anterior; nil si el anterior es cero.
func trend(current, previous decimal.Decimal) (*decimal.Decimal, string) {
	if previous.IsZero() {
		return nil, ""
	}
	pct := current.Sub(previous).Div(previous).Mul(hundred).Round(1)
	switch pct.Sign() {
	case 1:
		return &pct, "up"
	case -1:
		return &pct, "down"
	}
	return &pct, "flat"
}

// previousWindow ventana de igual duración inmediatamente anterior; false sin rango completo.
func previousWindow(q WidgetQuery) (WidgetQuery, bool) {
	if q.From == nil || q.To == nil {
		return q, false
	}
	span := q.To.Sub(*q.From)
	from, to := q.From.Add(-span), *q.From
	prev := q
	prev.From, prev.To = &from, &to
	return prev, true
}

func noTenants(q WidgetQuery) bool { return q.TenantIDs != nil && len(q.TenantIDs) == 0 }

// ── Formularios ───────────────────────────────────────────────────────────────

// FormProvider widgets de estadísticas de envíos.
type FormProvider struct {
	analytics   repository.AnalyticsRepository
	submissions repository.SubmissionRepository
	templates   repository.FormTemplateRepository
}

// NewFormProvider construye el proveedor de formularios.
func NewFormProvider(analyticsRepo repository.AnalyticsRepository, submissions repository.SubmissionRepository, templates repository.FormTemplateRepository) *FormProvider {
	return &FormProvider{analytics: analyticsRepo, submissions: submissions, templates: templates}
}

func (p *FormProvider) Key() string { return "form" }

func (p *FormProvider) Supports() []string {
	return []string{
		"form-template-count", "form-submission-count", "form-completion-rate", "form-pending-count",
		"form-submissions-trend", "form-submissions-by-status", "form-submissions-by-tenant", "form-recent-submissions",
	}
}

func (p *FormProvider) Data(ctx context.Context, widgetKey string, q WidgetQuery) (any, error) {
	switch strings.ToLower(widgetKey) {
	case "form-template-count":
		return p.templateCount(ctx)
	case "form-submission-count":
		return p.submissionCount(ctx, q)
	case "form-completion-rate":
		return p.completionRate(ctx, q)
	case "form-pending-count":
		return p.pendingCount(ctx, q)
	case "form-submissions-trend":
		return p.trendChart(ctx, q)
	case "form-submissions-by-status":
		return p.statusChart(ctx, q)
	case "form-submissions-by-tenant":
		return p.tenantChart(ctx, q)
	case "form-recent-submissions":
		return p.recent(ctx, q)
	}
	return nil, nil
}

func (p *FormProvider) templateCount(ctx context.Context) (any, error) {
	_, total, err := p.templates.List(ctx, repository.TemplateFilter{PublishStatus: entity.PublishPublished, OnlyActive: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	return dto.StatCardData{Value: formatCount(total), Label: "Formularios publicados", Icon: "ri-file-list-3-line", IconColor: "primary", UpIsGood: true}, nil
}

// statusCounts envíos por estado; con q.Status solo cuenta ese estado.
func (p *FormProvider) statusCounts(ctx context.Context, q WidgetQuery) (map[string]int, int, error) {
	if noTenants(q) {
		return map[string]int{}, 0, nil
	}
	counts, err := p.analytics.CountSubmissionsByStatus(ctx, q.Analytics())
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]int, len(counts))
	total := 0
	for _, c := range counts {
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		out[c.Status] += c.Count
		total += c.Count
	}
	return out, total, nil
}

func (p *FormProvider) submissionCount(ctx context.Context, q WidgetQuery) (any, error) {
	_, total, err := p.statusCounts(ctx, q)
	if err != nil {
		return nil, err
	}
	card := dto.StatCardData{Value: formatCount(total), Label: "Envíos", Icon: "ri-file-check-line", IconColor: "success", UpIsGood: true}
	if prev, ok := previousWindow(q); ok {
		_, prevTotal, err := p.statusCounts(ctx, prev)
		if err != nil {
			return nil, err
		}
		card.TrendValue, card.TrendDirection = trend(decimal.NewFromInt(int64(total)), decimal.NewFromInt(int64(prevTotal)))
	}
	return card, nil
}

func completion(counts map[string]int, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	final := counts[entity.SubmissionSubmitted] + counts[entity.SubmissionApproved]
	return decimal.NewFromInt(int64(final)).Div(decimal.NewFromInt(int64(total))).Mul(hundred).Round(1)
}

func (p *FormProvider) completionRate(ctx context.Context, q WidgetQuery) (any, error) {
	counts, total, err := p.statusCounts(ctx, q)
	if err != nil {
		return nil, err
	}
	rate := completion(counts, total)
	final := counts[entity.SubmissionSubmitted] + counts[entity.SubmissionApproved]
	card := dto.StatCardData{
		Value:          rate.StringFixed(1) + "%",
		Label:          "Completitud",
		Icon:           "ri-pie-chart-line",
		IconColor:      rateColor(rate),
		SecondaryValue: formatCount(final) + " de " + formatCount(total),
		UpIsGood:       true,
	}
	if prev, ok := previousWindow(q); ok {
		prevCounts, prevTotal, err := p.statusCounts(ctx, prev)
		if err != nil {
			return nil, err
		}
		card.TrendValue, card.TrendDirection = trend(rate, completion(prevCounts, prevTotal))
	}
	return card, nil
}

func (p *FormProvider) pendingCount(ctx context.Context, q WidgetQuery) (any, error) {
	counts, _, err := p.statusCounts(ctx, q)
	if err != nil {
		return nil, err
	}
	drafts, inApproval := counts[entity.SubmissionDraft], counts[entity.SubmissionInApproval]
	pending := drafts + inApproval
	color := "success"
	if pending > 0 {
		color = "warning"
	}
	return dto.StatCardData{
		Value:          formatCount(pending),
		Label:          "Pendientes",
		Icon:           "ri-time-line",
		IconColor:      color,
		SecondaryValue: formatCount(drafts) + " en borrador, " + formatCount(inApproval) + " en aprobación",
	}, nil
}

var statusOrder = []string{
	entity.SubmissionDraft, entity.SubmissionSubmitted, entity.SubmissionInApproval,
	entity.SubmissionApproved, entity.SubmissionRejected,
}

func (p *FormProvider) statusChart(ctx context.Context, q WidgetQuery) (any, error) {
	counts, total, err := p.statusCounts(ctx, q)
	if err != nil || total == 0 {
		return nil, err
	}
	chart := dto.ChartData{Datasets: []dto.ChartDataset{{Label: "Envíos"}}}
	for _, s := range statusOrder {
		if n := counts[s]; n > 0 {
			chart.Labels = append(chart.Labels, s)
			chart.Datasets[0].Data = append(chart.Datasets[0].Data, decimal.NewFromInt(int64(n)))
		}
	}
	return chart, nil
}

func (p *FormProvider) trendChart(ctx context.Context, q WidgetQuery) (any, error) {
	if noTenants(q) {
		return nil, nil
	}
	periods, err := p.analytics.CountSubmissionsByPeriod(ctx, q.Analytics(), 12)
	if err != nil || len(periods) == 0 {
		return nil, err
	}
	chart := dto.ChartData{Datasets: []dto.ChartDataset{{Label: "Envíos"}}}
	for _, pc := range periods {
		chart.Labels = append(chart.Labels, time.Date(pc.Year, time.Month(pc.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, decimal.NewFromInt(int64(pc.Count)))
	}
	return chart, nil
}

func (p *FormProvider) tenantChart(ctx context.Context, q WidgetQuery) (any, error) {
	if noTenants(q) {
		return nil, nil
	}
	rows, err := p.analytics.CountSubmissionsByTenant(ctx, q.Analytics(), 10)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	chart := dto.ChartData{Datasets: []dto.ChartDataset{{Label: "Total"}, {Label: "Finales"}}}
	for _, r := range rows {
		chart.Labels = append(chart.Labels, r.TenantName)
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, decimal.NewFromInt(int64(r.Total)))
		chart.Datasets[1].Data = append(chart.Datasets[1].Data, decimal.NewFromInt(int64(r.Final)))
	}
	return chart, nil
}

func (p *FormProvider) recent(ctx context.Context, q WidgetQuery) (any, error) {
	if noTenants(q) {
		return nil, nil
	}
	subs, _, err := p.submissions.List(ctx, repository.SubmissionFilter{TemplateID: q.TemplateID, TenantIDs: q.TenantIDs, Status: q.Status, Limit: 10})
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	table := dto.TableData{Columns: []dto.TableColumn{
		{Key: "tenant", Label: "Tenant"},
		{Key: "template", Label: "Formulario"},
		{Key: "period", Label: "Período"},
		{Key: "status", Label: "Estado"},
		{Key: "submitted_at", Label: "Enviado"},
	}}
	for _, s := range subs {
		row := map[string]any{
			"id":       s.ID,
			"tenant":   s.TenantName,
			"template": s.TemplateName,
			"period":   printer.Sprintf("%04d-%02d", s.ReportingYear, s.ReportingMonth),
			"status":   s.Status,
		}
		if s.SubmittedAt != nil {
			row["submitted_at"] = s.SubmittedAt.UTC().Format(time.DateTime)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ── Puntajes ──────────────────────────────────────────────────────────────────

// maxScored envíos más recientes considerados por los widgets de puntaje.
const maxScored = 200

// ScoringProvider widgets de puntajes de una plantilla; sin plantilla en contexto no hay datos.
type ScoringProvider struct {
	templates   repository.FormTemplateRepository
	submissions repository.SubmissionRepository
}

// NewScoringProvider construye el proveedor de puntajes.
func NewScoringProvider(templates repository.FormTemplateRepository, submissions repository.SubmissionRepository) *ScoringProvider {
	return &ScoringProvider{templates: templates, submissions: submissions}
}

func (p *ScoringProvider) Key() string { return "scoring" }

func (p *ScoringProvider) Supports() []string {
	return []string{"score-average", "score-distribution", "score-submission-count", "score-by-section", "score-by-tenant", "score-item-stats"}
}

type scored struct {
	sub       *entity.FormSubmission
	breakdown scoring.Breakdown
}

// load desgloses de los envíos finales (o del estado pedido) de la plantilla.
func (p *ScoringProvider) load(ctx context.Context, q WidgetQuery) ([]scored, error) {
	if q.TemplateID == "" || noTenants(q) {
		return nil, nil
	}
	st, err := p.templates.GetStructure(ctx, q.TemplateID)
	if err != nil || st == nil {
		return nil, err
	}
	f := repository.SubmissionFilter{TemplateID: q.TemplateID, TenantIDs: q.TenantIDs, Status: q.Status, Limit: maxScored}
	if q.From != nil {
		f.SubmittedFrom = q.From
	}
	if q.To != nil {
		last := q.To.Add(-time.Nanosecond)
		f.SubmittedTo = &last
	}
	subs, _, err := p.submissions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]scored, 0, len(subs))
	for _, s := range subs {
		if q.Status == "" && !s.IsFinal() {
			continue
		}
		responses, err := p.submissions.ListResponses(ctx, s.ID)
		if err != nil {
			return nil, err
		}
		b := scoring.Calculate(st, responses)
		if b.OverallScore != nil {
			out = append(out, scored{sub: s, breakdown: b})
		}
	}
	return out, nil
}

func (p *ScoringProvider) Data(ctx context.Context, widgetKey string, q WidgetQuery) (any, error) {
	key := strings.ToLower(widgetKey)
	if key == "score-item-stats" {
		return p.itemStats(ctx, q)
	}
	items, err := p.load(ctx, q)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	switch key {
	case "score-average":
		overall := make([]*decimal.Decimal, 0, len(items))
		for _, it := range items {
			overall = append(overall, it.breakdown.OverallScore)
		}
		avg := scoring.Average(overall).Round(1)
		return dto.GaugeData{Value: avg, Min: decimal.Zero, Max: hundred, Label: "Promedio de " + formatCount(len(items)) + " envíos", Color: rateColor(avg)}, nil
	case "score-submission-count":
		return dto.StatCardData{Value: formatCount(len(items)), Label: "Envíos puntuados", Icon: "ri-medal-line", IconColor: "primary", UpIsGood: true}, nil
	case "score-distribution":
		return distribution(items), nil
	case "score-by-section":
		return bySection(items), nil
	case "score-by-tenant":
		return byTenant(items), nil
	}
	return nil, nil
}

func distribution(items []scored) dto.ChartData {
	labels := []string{"< 50", "50 - 79", ">= 80"}
	counts := make([]int64, 3)
	for _, it := range items {
		v := *it.breakdown.OverallScore
		switch {
		case v.GreaterThanOrEqual(decimal.NewFromInt(80)):
			counts[2]++
		case v.GreaterThanOrEqual(decimal.NewFromInt(50)):
			counts[1]++
		default:
			counts[0]++
		}
	}
	ds := dto.ChartDataset{Label: "Envíos"}
	for _, n := range counts {
		ds.Data = append(ds.Data, decimal.NewFromInt(n))
	}
	return dto.ChartData{Labels: labels, Datasets: []dto.ChartDataset{ds}}
}

func bySection(items []scored) any {
	var order []string
	names := map[string]string{}
	scores := map[string][]*decimal.Decimal{}
	for _, it := range items {
		for _, s := range it.breakdown.Sections {
			if _, ok := names[s.SectionID]; !ok {
				order = append(order, s.SectionID)
				names[s.SectionID] = s.SectionName
			}
			scores[s.SectionID] = append(scores[s.SectionID], s.Score)
		}
	}
	chart := dto.ChartData{Datasets: []dto.ChartDataset{{Label: "Puntaje"}}}
	for _, id := range order {
		avg := scoring.Average(scores[id])
		if avg == nil {
			continue
		}
		chart.Labels = append(chart.Labels, names[id])
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, avg.Round(1))
	}
	if len(chart.Labels) == 0 {
		return nil
	}
	return chart
}

func byTenant(items []scored) dto.ChartData {
	type agg struct {
		name   string
		scores []*decimal.Decimal
	}
	byID := map[string]*agg{}
	for _, it := range items {
		id := ""
		if it.sub.TenantID != nil {
			id = *it.sub.TenantID
		}
		a, ok := byID[id]
		if !ok {
			a = &agg{name: it.sub.TenantName}
			byID[id] = a
		}
		a.scores = append(a.scores, it.breakdown.OverallScore)
	}
	type point struct {
		name string
		avg  decimal.Decimal
	}
	points := make([]point, 0, len(byID))
	for _, a := range byID {
		points = append(points, point{name: a.name, avg: scoring.Average(a.scores).Round(1)})
	}
	sort.Slice(points, func(i, j int) bool {
		if !points[i].avg.Equal(points[j].avg) {
			return points[i].avg.GreaterThan(points[j].avg)
		}
		return points[i].name < points[j].name
	})
	chart := dto.ChartData{Datasets: []dto.ChartDataset{{Label: "Puntaje"}}}
	for _, pt := range points {
		chart.Labels = append(chart.Labels, pt.name)
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, pt.avg)
	}
	return chart
}

func (p *ScoringProvider) itemStats(ctx context.Context, q WidgetQuery) (any, error) {
	if q.TemplateID == "" || noTenants(q) {
		return nil, nil
	}
	stats, err := p.submissions.ItemStats(ctx, q.TemplateID, q.TenantIDs)
	if err != nil || len(stats) == 0 {
		return nil, err
	}
	table := dto.TableData{Columns: []dto.TableColumn{
		{Key: "section", Label: "Sección"},
		{Key: "item", Label: "Campo"},
		{Key: "responses", Label: "Respuestas"},
		{Key: "average", Label: "Promedio"},
		{Key: "minimum", Label: "Mínimo"},
		{Key: "maximum", Label: "Máximo"},
	}}
	round := func(d *decimal.Decimal) any {
		if d == nil {
			return nil
		}
		return d.Round(2)
	}
	for _, s := range stats {
		table.Rows = append(table.Rows, map[string]any{
			"item_id":   s.ItemID,
			"section":   s.SectionName,
			"item":      s.ItemName,
			"responses": s.ResponseCount,
			"average":   round(s.Average),
			"minimum":   round(s.Minimum),
			"maximum":   round(s.Maximum),
		})
	}
	return table, nil
}

// ── Organización ──────────────────────────────────────────────────────────────

// OrganizationProvider widgets de estructura organizacional y cumplimiento regional.
type OrganizationProvider struct {
	analytics repository.AnalyticsRepository
	regions   repository.RegionRepository
	tenants   repository.TenantRepository
	snapshots repository.SnapshotRepository
	now       func() time.Time
}

// NewOrganizationProvider construye el proveedor organizacional.
func NewOrganizationProvider(analyticsRepo repository.AnalyticsRepository, regions repository.RegionRepository, tenants repository.TenantRepository, snapshots repository.SnapshotRepository) *OrganizationProvider {
	return &OrganizationProvider{analytics: analyticsRepo, regions: regions, tenants: tenants, snapshots: snapshots, now: time.Now}
}

func (p *OrganizationProvider) Key() string { return "organization" }

func (p *OrganizationProvider) Supports() []string {
	return []string{"org-region-count", "org-tenant-count", "org-department-count", "org-user-count", "org-tenants-by-type", "org-compliance-by-region"}
}

func (p *OrganizationProvider) Data(ctx context.Context, widgetKey string, q WidgetQuery) (any, error) {
	if noTenants(q) {
		return nil, nil
	}
	key := strings.ToLower(widgetKey)
	switch key {
	case "org-region-count", "org-tenant-count", "org-department-count", "org-user-count":
		counts, err := p.analytics.CountOrganization(ctx, q.TenantIDs)
		if err != nil {
			return nil, err
		}
		switch key {
		case "org-region-count":
			return dto.StatCardData{Value: formatCount(counts.Regions), Label: "Regiones", Icon: "ri-map-2-line", IconColor: "primary"}, nil
		case "org-tenant-count":
			return dto.StatCardData{Value: formatCount(counts.Tenants), Label: "Tenants", Icon: "ri-building-line", IconColor: "info"}, nil
		case "org-department-count":
			return dto.StatCardData{Value: formatCount(counts.Departments), Label: "Departamentos", Icon: "ri-organization-chart", IconColor: "secondary"}, nil
		default:
			return dto.StatCardData{Value: formatCount(counts.Users), Label: "Usuarios", Icon: "ri-user-line", IconColor: "success"}, nil
		}
	case "org-tenants-by-type":
		rows, err := p.analytics.CountTenantsByType(ctx, q.TenantIDs)
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		chart := dto.ChartData{Datasets: []dto.ChartDataset{{Label: "Tenants"}}}
		for _, r := range rows {
			chart.Labels = append(chart.Labels, r.TenantType)
			chart.Datasets[0].Data = append(chart.Datasets[0].Data, decimal.NewFromInt(int64(r.Count)))
		}
		return chart, nil
	case "org-compliance-by-region":
		return p.complianceByRegion(ctx, q)
	}
	return nil, nil
}

// complianceByRegion último consolidado mensual (12 meses hacia atrás) de cada región visible.
func (p *OrganizationProvider) complianceByRegion(ctx context.Context, q WidgetQuery) (any, error) {
	var regionIDs []string
	if q.TenantIDs != nil {
		tenants, _, err := p.tenants.List(ctx, repository.TenantFilter{IDs: q.TenantIDs, OnlyActive: true})
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		regionIDs = []string{}
		for _, t := range tenants {
			if t.RegionID != nil && !seen[*t.RegionID] {
				seen[*t.RegionID] = true
				regionIDs = append(regionIDs, *t.RegionID)
			}
		}
		if len(regionIDs) == 0 {
			return nil, nil
		}
	}
	regions, _, err := p.regions.List(ctx, regionIDs, repository.ListParams{OnlyActive: true})
	if err != nil {
		return nil, err
	}
	to := p.now().UTC()
	from := to.AddDate(-1, 0, 0)
	chart := dto.ChartData{Datasets: []dto.ChartDataset{{Label: "Cumplimiento"}}}
	for _, r := range regions {
		snaps, err := p.snapshots.ListRegionalSnapshots(ctx, r.ID, from, to)
		if err != nil {
			return nil, err
		}
		var latest *entity.RegionalMonthlySnapshot
		for _, s := range snaps {
			if s.AvgComplianceScore != nil && (latest == nil || s.YearMonth.After(latest.YearMonth)) {
				latest = s
			}
		}
		if latest == nil {
			continue
		}
		chart.Labels = append(chart.Labels, r.RegionName)
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, latest.AvgComplianceScore.Round(1))
	}
	if len(chart.Labels) == 0 {
		return nil, nil
	}
	return chart, nil
}
