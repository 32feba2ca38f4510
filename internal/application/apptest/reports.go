package apptest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// Reports fake de repository.ReportRepository.
type Reports struct {
	repository.ReportRepository
	mu         sync.Mutex
	Items      map[string]*entity.ReportDefinition
	Schedules  map[string]*entity.ReportSchedule
	Executions []*entity.ReportExecutionLog
	Access     []*entity.ReportAccessControl
}

// NewReports fake vacío.
func NewReports() *Reports {
	return &Reports{Items: map[string]*entity.ReportDefinition{}, Schedules: map[string]*entity.ReportSchedule{}}
}

func cloneReport(r *entity.ReportDefinition) *entity.ReportDefinition {
	cp := *r
	cp.Fields = slices.Clone(r.Fields)
	cp.Filters = slices.Clone(r.Filters)
	cp.Groupings = slices.Clone(r.Groupings)
	cp.Sortings = slices.Clone(r.Sortings)
	return &cp
}

func assignChildIDs(r *entity.ReportDefinition) {
	for i := range r.Fields {
		if r.Fields[i].ID == "" {
			r.Fields[i].ID = newID()
		}
	}
	for i := range r.Filters {
		if r.Filters[i].ID == "" {
			r.Filters[i].ID = newID()
		}
	}
	for i := range r.Groupings {
		if r.Groupings[i].ID == "" {
			r.Groupings[i].ID = newID()
		}
	}
	for i := range r.Sortings {
		if r.Sortings[i].ID == "" {
			r.Sortings[i].ID = newID()
		}
	}
}

func (r *Reports) Create(_ context.Context, d *entity.ReportDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.Items {
		if x.ReportCode == d.ReportCode {
			return domain.ErrDuplicate
		}
	}
	if d.ID == "" {
		d.ID = newID()
	}
	assignChildIDs(d)
	r.Items[d.ID] = cloneReport(d)
	return nil
}

func (r *Reports) Update(_ context.Context, d *entity.ReportDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[d.ID]; !ok {
		return domain.ErrNotFound
	}
	assignChildIDs(d)
	r.Items[d.ID] = cloneReport(d)
	return nil
}

// Delete baja lógica.
func (r *Reports) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.Items[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.IsActive = false
	return nil
}

func (r *Reports) GetByID(_ context.Context, id string) (*entity.ReportDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	return cloneReport(d), nil
}

func (r *Reports) GetByCode(_ context.Context, code string) (*entity.ReportDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.Items {
		if d.ReportCode == code {
			return cloneReport(d), nil
		}
	}
	return nil, nil
}

func (r *Reports) List(_ context.Context, f repository.ReportListFilter) ([]*entity.ReportDefinition, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ReportDefinition
	for _, d := range r.Items {
		if !d.IsActive {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if f.TemplateID != "" && (d.TemplateID == nil || *d.TemplateID != f.TemplateID) {
			continue
		}
		if f.Search != "" && !contains(d.ReportName, f.Search) && !contains(d.ReportCode, f.Search) {
			continue
		}
		cp := *d
		cp.Fields, cp.Filters, cp.Groupings, cp.Sortings = nil, nil, nil, nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportName < out[j].ReportName })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Reports) RecordRun(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.Items[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.LastRunAt = &at
	d.RunCount++
	return nil
}

func (r *Reports) CreateSchedule(_ context.Context, s *entity.ReportSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	cp := *s
	r.Schedules[s.ID] = &cp
	return nil
}

func (r *Reports) UpdateSchedule(_ context.Context, s *entity.ReportSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Schedules[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	r.Schedules[s.ID] = &cp
	return nil
}

func (r *Reports) DeleteSchedule(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Schedules, id)
	return nil
}

func (r *Reports) GetSchedule(_ context.Context, id string) (*entity.ReportSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Schedules[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *Reports) ListSchedules(_ context.Context, reportID string) ([]*entity.ReportSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ReportSchedule
	for _, s := range r.Schedules {
		if s.ReportID == reportID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduleName < out[j].ScheduleName })
	return out, nil
}

func (r *Reports) ListDueSchedules(_ context.Context, now time.Time) ([]*entity.ReportSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ReportSchedule
	for _, s := range r.Schedules {
		if s.IsActive && s.NextRunAt != nil && !s.NextRunAt.After(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextRunAt.Before(*out[j].NextRunAt) })
	return out, nil
}

func (r *Reports) CreateExecution(_ context.Context, l *entity.ReportExecutionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	cp := *l
	r.Executions = append(r.Executions, &cp)
	return nil
}

func (r *Reports) ListExecutions(_ context.Context, reportID string, limit int) ([]*entity.ReportExecutionLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ReportExecutionLog
	for i := len(r.Executions) - 1; i >= 0; i-- {
		if l := r.Executions[i]; l.ReportID == reportID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return page(out, limit, 0), nil
}

func (r *Reports) CreateAccess(_ context.Context, a *entity.ReportAccessControl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	cp := *a
	r.Access = append(r.Access, &cp)
	return nil
}

func (r *Reports) RevokeAccess(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.Access {
		if a.ID == id {
			a.IsActive = false
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *Reports) ListAccess(_ context.Context, reportID string) ([]*entity.ReportAccessControl, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ReportAccessControl
	for _, a := range r.Access {
		if a.ReportID == reportID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ReportQuery fake de repository.ReportQueryRepository: devuelve Result y guarda las consultas.
type ReportQuery struct {
	mu      sync.Mutex
	Result  *entity.ReportResult
	Err     error
	Queries []repository.ReportQuery
}

func (q *ReportQuery) Run(_ context.Context, in repository.ReportQuery) (*entity.ReportResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Queries = append(q.Queries, in)
	if q.Err != nil {
		return nil, q.Err
	}
	if q.Result == nil {
		return &entity.ReportResult{}, nil
	}
	return q.Result, nil
}

// Exporter exportador de texto plano para un formato dado.
type Exporter struct {
	Name string
	Err  error
}

func (e Exporter) Format() string      { return e.Name }
func (e Exporter) ContentType() string { return "text/plain" }
func (e Exporter) Extension() string   { return strings.ToLower(e.Name) }

func (e Exporter) Export(def *entity.ReportDefinition, result *entity.ReportResult) ([]byte, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return []byte(fmt.Sprintf("%s:%d", def.ReportCode, len(result.Rows))), nil
}
