package apptest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// Analytics fake de repository.AnalyticsRepository calculado sobre los envíos y tenants del Store.
// Los conteos organizacionales salen de Org.
type Analytics struct {
	submissions *Submissions
	tenants     *Tenants
	Org         repository.OrganizationCounts
	Err         error
}

// NewAnalytics fake enlazado a envíos y tenants.
func NewAnalytics(submissions *Submissions, tenants *Tenants) *Analytics {
	return &Analytics{submissions: submissions, tenants: tenants}
}

func (a *Analytics) filtered(f repository.AnalyticsFilter) []entity.FormSubmission {
	a.submissions.mu.Lock()
	defer a.submissions.mu.Unlock()
	var out []entity.FormSubmission
	for _, s := range a.submissions.Items {
		if f.TemplateID != "" && s.TemplateID != f.TemplateID {
			continue
		}
		if f.TenantIDs != nil && (s.TenantID == nil || !slices.Contains(f.TenantIDs, *s.TenantID)) {
			continue
		}
		if f.From != nil && s.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !s.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, *s)
	}
	return out
}

func (a *Analytics) CountSubmissionsByStatus(_ context.Context, f repository.AnalyticsFilter) ([]repository.StatusCount, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	counts := map[string]int{}
	for _, s := range a.filtered(f) {
		counts[s.Status]++
	}
	out := make([]repository.StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, repository.StatusCount{Status: st, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (a *Analytics) CountSubmissionsByPeriod(_ context.Context, f repository.AnalyticsFilter, months int) ([]repository.PeriodCount, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	counts := map[[2]int]int{}
	for _, s := range a.filtered(f) {
		counts[[2]int{s.ReportingYear, s.ReportingMonth}]++
	}
	out := make([]repository.PeriodCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, repository.PeriodCount{Year: k[0], Month: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	if months > 0 && len(out) > months {
		out = out[len(out)-months:]
	}
	return out, nil
}

func (a *Analytics) tenantName(id string) string {
	a.tenants.mu.Lock()
	defer a.tenants.mu.Unlock()
	if t, ok := a.tenants.Items[id]; ok {
		return t.TenantName
	}
	return ""
}

func (a *Analytics) CountSubmissionsByTenant(_ context.Context, f repository.AnalyticsFilter, limit int) ([]repository.TenantSubmissionCount, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	byID := map[string]*repository.TenantSubmissionCount{}
	for _, s := range a.filtered(f) {
		if s.TenantID == nil {
			continue
		}
		c, ok := byID[*s.TenantID]
		if !ok {
			c = &repository.TenantSubmissionCount{TenantID: *s.TenantID, TenantName: a.tenantName(*s.TenantID)}
			byID[*s.TenantID] = c
		}
		c.Total++
		if s.IsFinal() {
			c.Final++
		}
	}
	out := make([]repository.TenantSubmissionCount, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].TenantName < out[j].TenantName
	})
	return page(out, limit, 0), nil
}

func (a *Analytics) CountOrganization(_ context.Context, tenantIDs []string) (repository.OrganizationCounts, error) {
	if a.Err != nil {
		return repository.OrganizationCounts{}, a.Err
	}
	return a.Org, nil
}

func (a *Analytics) CountTenantsByType(_ context.Context, tenantIDs []string) ([]repository.TenantTypeCount, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	a.tenants.mu.Lock()
	defer a.tenants.mu.Unlock()
	counts := map[string]int{}
	for _, t := range a.tenants.Items {
		if !t.IsActive || (tenantIDs != nil && !slices.Contains(tenantIDs, t.ID)) {
			continue
		}
		counts[t.TenantType]++
	}
	out := make([]repository.TenantTypeCount, 0, len(counts))
	for tt, n := range counts {
		out = append(out, repository.TenantTypeCount{TenantType: tt, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantType < out[j].TenantType })
	return out, nil
}

// SubmissionStats cuenta por fecha de creación en [from, to).
func (a *Analytics) SubmissionStats(_ context.Context, tenantID string, from, to time.Time) (repository.SubmissionStats, error) {
	if a.Err != nil {
		return repository.SubmissionStats{}, a.Err
	}
	var st repository.SubmissionStats
	for _, s := range a.filtered(repository.AnalyticsFilter{TenantIDs: []string{tenantID}, From: &from, To: &to}) {
		st.Total++
		switch s.Status {
		case entity.SubmissionApproved:
			st.Approved++
		case entity.SubmissionSubmitted, entity.SubmissionInApproval:
			st.Pending++
		}
	}
	return st, nil
}

// ── Snapshots ─────────────────────────────────────────────────────────────────

// Snapshots fake de repository.SnapshotRepository indexado por clave natural.
type Snapshots struct {
	mu       sync.Mutex
	Tenant   map[string]*entity.TenantPerformanceSnapshot
	Regional map[string]*entity.RegionalMonthlySnapshot
}

// NewSnapshots fake vacío.
func NewSnapshots() *Snapshots {
	return &Snapshots{Tenant: map[string]*entity.TenantPerformanceSnapshot{}, Regional: map[string]*entity.RegionalMonthlySnapshot{}}
}

func tenantSnapshotKey(s *entity.TenantPerformanceSnapshot) string {
	return s.TenantID + "|" + s.SnapshotType + "|" + s.SnapshotDate.UTC().Format(time.DateOnly)
}

func (r *Snapshots) UpsertTenantSnapshot(_ context.Context, s *entity.TenantPerformanceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tenantSnapshotKey(s)
	if prev, ok := r.Tenant[key]; ok {
		s.ID = prev.ID
		s.DataVersion = prev.DataVersion + 1
	} else {
		if s.ID == "" {
			s.ID = newID()
		}
		s.DataVersion = 1
	}
	cp := *s
	r.Tenant[key] = &cp
	return nil
}

func (r *Snapshots) UpsertRegionalSnapshot(_ context.Context, s *entity.RegionalMonthlySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := s.RegionID + "|" + s.YearMonth.UTC().Format("2006-01")
	if prev, ok := r.Regional[key]; ok {
		s.ID = prev.ID
	} else if s.ID == "" {
		s.ID = newID()
	}
	cp := *s
	r.Regional[key] = &cp
	return nil
}

func (r *Snapshots) ListTenantSnapshots(_ context.Context, tenantID string, from, to time.Time) ([]*entity.TenantPerformanceSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.TenantPerformanceSnapshot
	for _, s := range r.Tenant {
		if s.TenantID == tenantID && !s.SnapshotDate.Before(from) && !s.SnapshotDate.After(to) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SnapshotDate.Before(out[j].SnapshotDate) })
	return out, nil
}

func (r *Snapshots) ListRegionalSnapshots(_ context.Context, regionID string, from, to time.Time) ([]*entity.RegionalMonthlySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RegionalMonthlySnapshot
	for _, s := range r.Regional {
		if s.RegionID == regionID && !s.YearMonth.Before(from) && !s.YearMonth.After(to) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].YearMonth.Before(out[j].YearMonth) })
	return out, nil
}

var (
	_ repository.AnalyticsRepository = (*Analytics)(nil)
	_ repository.SnapshotRepository  = (*Snapshots)(nil)
)
