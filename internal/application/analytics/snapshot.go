package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/metrics"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/jhoicas/form-reporting-api/internal/domain/scoring"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// snapshotWorkers tenants procesados en paralelo.
const snapshotWorkers = 4

// Scope restricción de tenants del solicitante.
type Scope interface {
	Restriction(ctx context.Context, c *access.Claims) ([]string, error)
	CanAccessTenant(ctx context.Context, c *access.Claims, tenantID string) (bool, error)
}

// SnapshotService genera y consulta fotos de desempeño por tenant y consolidados regionales.
type SnapshotService struct {
	tenants     repository.TenantRepository
	regions     repository.RegionRepository
	templates   repository.FormTemplateRepository
	submissions repository.SubmissionRepository
	values      repository.TenantMetricRepository
	analytics   repository.AnalyticsRepository
	snapshots   repository.SnapshotRepository
	scope       Scope
	now         func() time.Time
}

// NewSnapshotService construye el servicio de snapshots.
func NewSnapshotService(
	tenants repository.TenantRepository,
	regions repository.RegionRepository,
	templates repository.FormTemplateRepository,
	submissions repository.SubmissionRepository,
	values repository.TenantMetricRepository,
	analyticsRepo repository.AnalyticsRepository,
	snapshots repository.SnapshotRepository,
	scope Scope,
) *SnapshotService {
	return &SnapshotService{
		tenants:     tenants,
		regions:     regions,
		templates:   templates,
		submissions: submissions,
		values:      values,
		analytics:   analyticsRepo,
		snapshots:   snapshots,
		scope:       scope,
		now:         time.Now,
	}
}

// SnapshotRange período cubierto: el día, o el mes completo para Monthly. to es exclusivo.
func SnapshotRange(date time.Time, snapshotType string) (from, to time.Time) {
	date = date.UTC()
	if snapshotType == entity.SnapshotMonthly {
		from = time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	}
	from = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

// structures cache de estructuras de plantilla compartida por las goroutines de una corrida.
type structures struct {
	repo repository.FormTemplateRepository
	mu   sync.Mutex
	byID map[string]*entity.TemplateStructure
}

func (s *structures) get(ctx context.Context, templateID string) (*entity.TemplateStructure, error) {
	s.mu.Lock()
	st, ok := s.byID[templateID]
	s.mu.Unlock()
	if ok {
		return st, nil
	}
	st, err := s.repo.GetStructure(ctx, templateID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.byID[templateID] = st
	s.mu.Unlock()
	return st, nil
}

func (s *SnapshotService) newStructures() *structures {
	return &structures{repo: s.templates, byID: map[string]*entity.TemplateStructure{}}
}

// complianceScore promedio del puntaje general de los envíos finales del tenant en el rango.
func (s *SnapshotService) complianceScore(ctx context.Context, sts *structures, tenantID string, from, to time.Time) (*decimal.Decimal, error) {
	last := to.Add(-time.Nanosecond)
	subs, _, err := s.submissions.List(ctx, repository.SubmissionFilter{
		TenantIDs:     []string{tenantID},
		SubmittedFrom: &from,
		SubmittedTo:   &last,
	})
	if err != nil {
		return nil, err
	}
	var scores []*decimal.Decimal
	for _, sub := range subs {
		if !sub.IsFinal() {
			continue
		}
		st, err := sts.get(ctx, sub.TemplateID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			continue
		}
		responses, err := s.submissions.ListResponses(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		scores = append(scores, scoring.Overall(st, responses))
	}
	return scoring.Average(scores), nil
}

// ── Generación ────────────────────────────────────────────────────────────────

// TenantSnapshot calcula y guarda (upsert) la foto del tenant para la fecha.
func (s *SnapshotService) TenantSnapshot(ctx context.Context, tenantID string, date time.Time, snapshotType, generatedBy string) (*entity.TenantPerformanceSnapshot, error) {
	return s.tenantSnapshot(ctx, s.newStructures(), tenantID, date, snapshotType, generatedBy)
}

func (s *SnapshotService) tenantSnapshot(ctx context.Context, sts *structures, tenantID string, date time.Time, snapshotType, generatedBy string) (*entity.TenantPerformanceSnapshot, error) {
	if snapshotType != entity.SnapshotMonthly {
		snapshotType = entity.SnapshotDaily
	}
	from, to := SnapshotRange(date, snapshotType)
	stats, err := s.analytics.SubmissionStats(ctx, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: envíos: %w", tenantID, err)
	}
	period := metrics.ReportingPeriod(from)
	values, err := s.values.List(ctx, repository.TenantMetricFilter{TenantIDs: []string{tenantID}, From: &period, To: &period})
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: métricas: %w", tenantID, err)
	}
	data := make(map[string]decimal.Decimal, len(values))
	for _, v := range values {
		if v.NumericValue != nil && v.MetricCode != "" {
			data[v.MetricCode] = *v.NumericValue
		}
	}
	score, err := s.complianceScore(ctx, sts, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: puntaje: %w", tenantID, err)
	}
	snap := &entity.TenantPerformanceSnapshot{
		TenantID:            tenantID,
		SnapshotDate:        from,
		SnapshotType:        snapshotType,
		MetricsData:         data,
		TotalSubmissions:    stats.Total,
		ApprovedSubmissions: stats.Approved,
		PendingSubmissions:  stats.Pending,
		ComplianceScore:     score,
		GeneratedAt:         s.now().UTC(),
		GeneratedBy:         generatedBy,
		DataVersion:         1,
	}
	if err := s.snapshots.UpsertTenantSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// GenerateTenantSnapshots foto de todos los tenants activos en paralelo.
// Un tenant que falla se registra y no detiene a los demás.
func (s *SnapshotService) GenerateTenantSnapshots(ctx context.Context, date time.Time, snapshotType, generatedBy string) (generated, failed int, err error) {
	ids, err := s.tenants.ListActiveIDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	sts := s.newStructures()
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotWorkers)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.tenantSnapshot(gctx, sts, id, date, snapshotType, generatedBy)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("tenant_id", id).Msg("snapshots: tenant fallido")
				failed++
				return nil
			}
			generated++
			return nil
		})
	}
	err = g.Wait()
	log.Info().Int("generated", generated).Int("failed", failed).Str("type", snapshotType).Msg("snapshots de tenants generados")
	return generated, failed, err
}

// RegionalSnapshot consolida el mes de la región a partir de sus tenants activos.
func (s *SnapshotService) RegionalSnapshot(ctx context.Context, regionID string, month time.Time) (*entity.RegionalMonthlySnapshot, error) {
	return s.regionalSnapshot(ctx, s.newStructures(), regionID, month)
}

func (s *SnapshotService) regionalSnapshot(ctx context.Context, sts *structures, regionID string, month time.Time) (*entity.RegionalMonthlySnapshot, error) {
	from, to := SnapshotRange(month, entity.SnapshotMonthly)
	ids, err := s.tenants.ListActiveIDsByRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}
	type tenantResult struct {
		stats repository.SubmissionStats
		score *decimal.Decimal
	}
	results := make([]tenantResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotWorkers)
	for i, id := range ids {
		g.Go(func() error {
			stats, err := s.analytics.SubmissionStats(gctx, id, from, to)
			if err != nil {
				return fmt.Errorf("región %s, tenant %s: %w", regionID, id, err)
			}
			score, err := s.complianceScore(gctx, sts, id, from, to)
			if err != nil {
				return fmt.Errorf("región %s, tenant %s: %w", regionID, id, err)
			}
			results[i] = tenantResult{stats: stats, score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &entity.RegionalMonthlySnapshot{RegionID: regionID, YearMonth: from, TotalTenants: len(ids), LastUpdated: s.now().UTC()}
	scores := make([]*decimal.Decimal, 0, len(results))
	for _, r := range results {
		if r.stats.Total > 0 {
			snap.ReportingTenants++
		}
		snap.TotalSubmissions += r.stats.Total
		scores = append(scores, r.score)
	}
	snap.AvgComplianceScore = scoring.Average(scores)
	if err := s.snapshots.UpsertRegionalSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Generate corre una generación completa: tenants y, si se pide, regiones del mes.
func (s *SnapshotService) Generate(ctx context.Context, c *access.Claims, in dto.GenerateSnapshotsRequest) (*dto.SnapshotRunResponse, error) {
	date := s.now().UTC()
	if in.Date != "" {
		d, err := time.Parse(time.DateOnly, in.Date)
		if err != nil {
			return nil, domain.Invalid("date", "formato esperado YYYY-MM-DD")
		}
		date = d
	}
	typ := in.SnapshotType
	if typ == "" {
		typ = entity.SnapshotDaily
	}
	from, _ := SnapshotRange(date, typ)
	out := &dto.SnapshotRunResponse{SnapshotDate: from.Format(time.DateOnly), SnapshotType: typ}
	var err error
	out.Generated, out.Failed, err = s.GenerateTenantSnapshots(ctx, date, typ, c.UserID)
	if err != nil {
		return nil, err
	}
	if !in.Regional {
		return out, nil
	}
	regions, _, err := s.regions.List(ctx, nil, repository.ListParams{OnlyActive: true})
	if err != nil {
		return nil, err
	}
	sts := s.newStructures()
	for _, r := range regions {
		if _, err := s.regionalSnapshot(ctx, sts, r.ID, date); err != nil {
			log.Warn().Err(err).Str("region_id", r.ID).Msg("snapshots: región fallida")
			continue
		}
		out.Regions++
	}
	return out, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

// TenantSnapshots fotos del tenant en el rango, si el solicitante lo puede ver.
func (s *SnapshotService) TenantSnapshots(ctx context.Context, c *access.Claims, tenantID string, in dto.SnapshotRangeRequest) ([]dto.TenantSnapshotResponse, error) {
	ok, err := s.scope.CanAccessTenant(ctx, c, tenantID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrForbidden
	}
	from, to, err := s.parseRange(in)
	if err != nil {
		return nil, err
	}
	items, err := s.snapshots.ListTenantSnapshots(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TenantSnapshotResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.TenantSnapshotResponse{
			ID:                  it.ID,
			TenantID:            it.TenantID,
			SnapshotDate:        it.SnapshotDate.Format(time.DateOnly),
			SnapshotType:        it.SnapshotType,
			Metrics:             it.MetricsData,
			TotalSubmissions:    it.TotalSubmissions,
			ApprovedSubmissions: it.ApprovedSubmissions,
			PendingSubmissions:  it.PendingSubmissions,
			ComplianceScore:     it.ComplianceScore,
			GeneratedAt:         it.GeneratedAt,
		})
	}
	return out, nil
}

// RegionalSnapshots consolidados de la región; con alcance restringido debe ver algún tenant de ella.
func (s *SnapshotService) RegionalSnapshots(ctx context.Context, c *access.Claims, regionID string, in dto.SnapshotRangeRequest) ([]dto.RegionalSnapshotResponse, error) {
	allowed, err := s.scope.Restriction(ctx, c)
	if err != nil {
		return nil, err
	}
	if allowed != nil {
		ids, err := s.tenants.ListActiveIDsByRegion(ctx, regionID)
		if err != nil {
			return nil, err
		}
		visible := false
		for _, id := range ids {
			for _, a := range allowed {
				visible = visible || id == a
			}
		}
		if !visible {
			return nil, domain.ErrForbidden
		}
	}
	from, to, err := s.parseRange(in)
	if err != nil {
		return nil, err
	}
	items, err := s.snapshots.ListRegionalSnapshots(ctx, regionID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegionalSnapshotResponse, 0, len(items))
	for _, it := range items {
		out = append(out, dto.RegionalSnapshotResponse{
			ID:                 it.ID,
			RegionID:           it.RegionID,
			YearMonth:          it.YearMonth.Format("2006-01"),
			TotalTenants:       it.TotalTenants,
			ReportingTenants:   it.ReportingTenants,
			TotalSubmissions:   it.TotalSubmissions,
			AvgComplianceScore: it.AvgComplianceScore,
			LastUpdated:        it.LastUpdated,
		})
	}
	return out, nil
}

// parseRange por defecto los últimos 12 meses hasta hoy.
func (s *SnapshotService) parseRange(in dto.SnapshotRangeRequest) (time.Time, time.Time, error) {
	now := s.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := to.AddDate(-1, 0, 0)
	var errs domain.ValidationErrors
	if in.From != "" {
		d, err := time.Parse(time.DateOnly, in.From)
		if err != nil {
			errs.Add("from", "formato esperado YYYY-MM-DD")
		}
		from = d
	}
	if in.To != "" {
		d, err := time.Parse(time.DateOnly, in.To)
		if err != nil {
			errs.Add("to", "formato esperado YYYY-MM-DD")
		}
		to = d
	}
	if err := errs.OrNil(); err != nil {
		return from, to, err
	}
	if to.Before(from) {
		return from, to, domain.Invalid("from", "debe ser anterior a to")
	}
	return from, to, nil
}
