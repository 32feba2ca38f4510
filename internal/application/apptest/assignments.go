package apptest

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
)

// ── Asignaciones ──────────────────────────────────────────────────────────────

// Assignments fake de repository.FormAssignmentRepository.
type Assignments struct {
	repository.FormAssignmentRepository
	mu        sync.Mutex
	Items     map[string]*entity.FormAssignment
	templates *Templates
}

// NewAssignments fake vacío; toma el nombre y el estado de publicación de templates.
func NewAssignments(templates *Templates) *Assignments {
	return &Assignments{Items: map[string]*entity.FormAssignment{}, templates: templates}
}

func (r *Assignments) withTemplate(a *entity.FormAssignment) *entity.FormAssignment {
	cp := *a
	if t, _ := r.templates.GetByID(context.Background(), a.TemplateID); t != nil {
		cp.TemplateName = t.TemplateName
	}
	return &cp
}

func (r *Assignments) Create(_ context.Context, a *entity.FormAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	cp := *a
	r.Items[a.ID] = &cp
	return nil
}

func (r *Assignments) Update(_ context.Context, a *entity.FormAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[a.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *a
	r.Items[a.ID] = &cp
	return nil
}

func (r *Assignments) GetByID(_ context.Context, id string) (*entity.FormAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	return r.withTemplate(a), nil
}

func (r *Assignments) sorted(keep func(*entity.FormAssignment) bool) []*entity.FormAssignment {
	var out []*entity.FormAssignment
	for _, a := range r.Items {
		if keep(a) {
			out = append(out, r.withTemplate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.After(out[j].AssignedAt) })
	return out
}

func (r *Assignments) List(_ context.Context, f repository.AssignmentFilter) ([]*entity.FormAssignment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(a *entity.FormAssignment) bool {
		switch {
		case f.TemplateID != "" && a.TemplateID != f.TemplateID,
			f.AssignmentType != "" && a.AssignmentType != f.AssignmentType,
			f.Status != "" && a.Status != f.Status,
			f.EffectiveAt != nil && !a.IsEffective(*f.EffectiveAt),
			f.ExpiredAt != nil && !a.IsExpired(*f.ExpiredAt):
			return false
		}
		return true
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Assignments) ListByTemplate(_ context.Context, templateID string) ([]*entity.FormAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a *entity.FormAssignment) bool { return a.TemplateID == templateID }), nil
}

func (r *Assignments) ListEffective(ctx context.Context, at time.Time) ([]*entity.FormAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(a *entity.FormAssignment) bool {
		t, _ := r.templates.GetByID(ctx, a.TemplateID)
		return a.IsEffective(at) && t != nil && t.PublishStatus == entity.PublishPublished && t.IsActive
	}), nil
}

func (r *Assignments) RevokeExpired(_ context.Context, at time.Time, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.Items {
		if a.Status == entity.AssignmentActive && a.IsExpired(at) {
			a.Status = entity.AssignmentRevoked
			ts := at
			a.CancelledAt = &ts
			a.CancelReason = reason
			n++
		}
	}
	return n, nil
}

func (r *Assignments) Counts(_ context.Context, templateID string, at time.Time) (*repository.AssignmentCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &repository.AssignmentCounts{ByType: map[string]int{}}
	for _, a := range r.Items {
		if templateID != "" && a.TemplateID != templateID {
			continue
		}
		c.Total++
		c.ByType[a.AssignmentType]++
		switch a.Status {
		case entity.AssignmentActive:
			c.Active++
		case entity.AssignmentSuspended:
			c.Suspended++
		case entity.AssignmentRevoked:
			c.Revoked++
		}
		if a.IsExpired(at) {
			c.Expired++
		}
		if a.IsEffective(at) {
			c.Effective++
		}
		if a.AllowAnonymous {
			c.Anonymous++
		}
	}
	return c, nil
}

// ── Reglas de envío ───────────────────────────────────────────────────────────

// Rules fake de repository.SubmissionRuleRepository.
type Rules struct {
	repository.SubmissionRuleRepository
	mu    sync.Mutex
	Items map[string]*entity.SubmissionRule
}

// NewRules fake vacío.
func NewRules() *Rules {
	return &Rules{Items: map[string]*entity.SubmissionRule{}}
}

func (r *Rules) Create(_ context.Context, x *entity.SubmissionRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x.ID == "" {
		x.ID = newID()
	}
	cp := *x
	r.Items[x.ID] = &cp
	return nil
}

func (r *Rules) Update(_ context.Context, x *entity.SubmissionRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[x.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *x
	r.Items[x.ID] = &cp
	return nil
}

func (r *Rules) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.Items, id)
	return nil
}

func (r *Rules) GetByID(_ context.Context, id string) (*entity.SubmissionRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	x, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	cp := *x
	return &cp, nil
}

func (r *Rules) list(keep func(*entity.SubmissionRule) bool) []*entity.SubmissionRule {
	var out []*entity.SubmissionRule
	for _, x := range r.Items {
		if keep(x) {
			cp := *x
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].RuleName < out[j].RuleName
	})
	return out
}

func (r *Rules) ListByTemplate(_ context.Context, templateID string) ([]*entity.SubmissionRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.list(func(x *entity.SubmissionRule) bool { return x.TemplateID == templateID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].RuleName < out[j].RuleName })
	return out, nil
}

func (r *Rules) ListActive(_ context.Context) ([]*entity.SubmissionRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(x *entity.SubmissionRule) bool { return x.Status == entity.RuleActive }), nil
}

// ── Catálogos de opciones ─────────────────────────────────────────────────────

// OptionTemplates fake de repository.OptionTemplateRepository.
type OptionTemplates struct {
	repository.OptionTemplateRepository
	mu    sync.Mutex
	Items map[string]*entity.OptionTemplate
}

// NewOptionTemplates fake vacío.
func NewOptionTemplates() *OptionTemplates {
	return &OptionTemplates{Items: map[string]*entity.OptionTemplate{}}
}

func (r *OptionTemplates) copyOf(t *entity.OptionTemplate) *entity.OptionTemplate {
	cp := *t
	cp.Items = make([]*entity.OptionTemplateItem, 0, len(t.Items))
	for _, it := range t.Items {
		ic := *it
		cp.Items = append(cp.Items, &ic)
	}
	return &cp
}

func (r *OptionTemplates) Create(_ context.Context, t *entity.OptionTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.Items {
		if strings.EqualFold(x.TemplateCode, t.TemplateCode) {
			return domain.ErrDuplicate
		}
	}
	if t.ID == "" {
		t.ID = newID()
	}
	cp := *t
	cp.Items = nil
	r.Items[t.ID] = &cp
	return nil
}

func (r *OptionTemplates) Update(_ context.Context, t *entity.OptionTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.Items[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *t
	cp.Items = cur.Items
	cp.UsageCount = cur.UsageCount
	r.Items[t.ID] = &cp
	return nil
}

func (r *OptionTemplates) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.Items, id)
	return nil
}

func (r *OptionTemplates) GetByID(_ context.Context, id string) (*entity.OptionTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	return r.copyOf(t), nil
}

func (r *OptionTemplates) GetByCode(_ context.Context, code string) (*entity.OptionTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.Items {
		if strings.EqualFold(t.TemplateCode, code) {
			return r.copyOf(t), nil
		}
	}
	return nil, nil
}

func (r *OptionTemplates) List(_ context.Context, f repository.OptionTemplateFilter) ([]*entity.OptionTemplate, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.OptionTemplate
	for _, t := range r.Items {
		if f.OnlyActive && !t.IsActive {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.FieldType != "" && !slices.Contains(strings.Split(strings.ReplaceAll(t.ApplicableFieldTypes, " ", ""), ","), f.FieldType) {
			continue
		}
		if f.Search != "" && !contains(t.TemplateName, f.Search) && !contains(t.TemplateCode, f.Search) && !contains(t.Description, f.Search) {
			continue
		}
		cp := *t
		cp.Items = nil
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].TemplateName < out[j].TemplateName
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *OptionTemplates) Categories(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, t := range r.Items {
		if t.IsActive && t.Category != "" && !slices.Contains(out, t.Category) {
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *OptionTemplates) ReplaceItems(_ context.Context, templateID string, items []*entity.OptionTemplateItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Items[templateID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Items = make([]*entity.OptionTemplateItem, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			it.ID = newID()
		}
		it.TemplateID = templateID
		cp := *it
		t.Items = append(t.Items, &cp)
	}
	return nil
}

func (r *OptionTemplates) IncrementUsage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Items[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.UsageCount++
	return nil
}
