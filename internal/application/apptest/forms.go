package apptest

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ── Categorías ────────────────────────────────────────────────────────────────

// Categories fake de repository.FormCategoryRepository.
type Categories struct {
	repository.FormCategoryRepository
	mu        sync.Mutex
	Items     map[string]*entity.FormCategory
	templates *Templates
}

// NewCategories fake vacío; cuenta plantillas sobre templates.
func NewCategories(templates *Templates) *Categories {
	return &Categories{Items: map[string]*entity.FormCategory{}, templates: templates}
}

func (r *Categories) Create(_ context.Context, c *entity.FormCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	cp := *c
	r.Items[c.ID] = &cp
	return nil
}

func (r *Categories) Update(_ context.Context, c *entity.FormCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *c
	r.Items[c.ID] = &cp
	return nil
}

func (r *Categories) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Items, id)
	return nil
}

func (r *Categories) GetByID(_ context.Context, id string) (*entity.FormCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *Categories) List(_ context.Context, p repository.ListParams) ([]*entity.FormCategory, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FormCategory
	for _, c := range r.Items {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return page(out, p.Limit, p.Offset), len(out), nil
}

func (r *Categories) CountTemplates(_ context.Context, categoryID string) (int, error) {
	r.templates.mu.Lock()
	defer r.templates.mu.Unlock()
	n := 0
	for _, t := range r.templates.Items {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// ── Plantillas ────────────────────────────────────────────────────────────────

// Templates fake de repository.FormTemplateRepository con la estructura en mapas.
type Templates struct {
	repository.FormTemplateRepository
	mu          sync.Mutex
	Items       map[string]*entity.FormTemplate
	Sections    map[string]*entity.FormSection
	FormItems   map[string]*entity.FormItem
	Options     map[string][]*entity.FormItemOption
	Validations map[string][]*entity.FormItemValidation
}

// NewTemplates fake vacío.
func NewTemplates() *Templates {
	return &Templates{
		Items:       map[string]*entity.FormTemplate{},
		Sections:    map[string]*entity.FormSection{},
		FormItems:   map[string]*entity.FormItem{},
		Options:     map[string][]*entity.FormItemOption{},
		Validations: map[string][]*entity.FormItemValidation{},
	}
}

func (r *Templates) Create(_ context.Context, t *entity.FormTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	cp := *t
	r.Items[t.ID] = &cp
	return nil
}

func (r *Templates) Update(_ context.Context, t *entity.FormTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	r.Items[t.ID] = &cp
	return nil
}

func (r *Templates) GetByID(_ context.Context, id string) (*entity.FormTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *Templates) versions(code string) []*entity.FormTemplate {
	var out []*entity.FormTemplate
	for _, t := range r.Items {
		if t.TemplateCode == code {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out
}

func (r *Templates) GetByCode(_ context.Context, code string) (*entity.FormTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.versions(code)
	if len(v) == 0 {
		return nil, nil
	}
	return v[0], nil
}

func (r *Templates) ListVersions(_ context.Context, code string) ([]*entity.FormTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions(code), nil
}

func (r *Templates) List(_ context.Context, f repository.TemplateFilter) ([]*entity.FormTemplate, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FormTemplate
	for _, t := range r.Items {
		if f.CategoryID != "" && (t.CategoryID == nil || *t.CategoryID != f.CategoryID) {
			continue
		}
		if f.PublishStatus != "" && t.PublishStatus != f.PublishStatus {
			continue
		}
		if f.OnlyActive && !t.IsActive {
			continue
		}
		if f.Search != "" && !contains(t.TemplateName, f.Search) && !contains(t.TemplateCode, f.Search) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TemplateCode != out[j].TemplateCode {
			return out[i].TemplateCode < out[j].TemplateCode
		}
		return out[i].Version > out[j].Version
	})
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Templates) CreateSection(_ context.Context, s *entity.FormSection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = newID()
	}
	cp := *s
	r.Sections[s.ID] = &cp
	return nil
}

func (r *Templates) UpdateSection(_ context.Context, s *entity.FormSection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Sections[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	r.Sections[s.ID] = &cp
	return nil
}

func (r *Templates) DeleteSection(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Sections, id)
	return nil
}

func (r *Templates) GetSection(_ context.Context, id string) (*entity.FormSection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Sections[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *Templates) CountSectionItems(_ context.Context, sectionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.FormItems {
		if it.SectionID == sectionID {
			n++
		}
	}
	return n, nil
}

func (r *Templates) CreateItem(_ context.Context, it *entity.FormItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID == "" {
		it.ID = newID()
	}
	cp := *it
	r.FormItems[it.ID] = &cp
	return nil
}

func (r *Templates) UpdateItem(_ context.Context, it *entity.FormItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.FormItems[it.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *it
	r.FormItems[it.ID] = &cp
	return nil
}

func (r *Templates) DeleteItem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.FormItems, id)
	delete(r.Options, id)
	delete(r.Validations, id)
	return nil
}

func (r *Templates) item(it *entity.FormItem) *entity.FormItem {
	cp := *it
	if s, ok := r.Sections[it.SectionID]; ok {
		cp.SectionName = s.SectionName
	}
	return &cp
}

func (r *Templates) GetItem(_ context.Context, id string) (*entity.FormItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.FormItems[id]
	if !ok {
		return nil, nil
	}
	return r.item(it), nil
}

func (r *Templates) GetItemByCode(_ context.Context, templateID, code string) (*entity.FormItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.FormItems {
		if it.TemplateID == templateID && it.ItemCode == code {
			return r.item(it), nil
		}
	}
	return nil, nil
}

// sortedItems ítems activos de la plantilla por orden de sección e ítem.
func (r *Templates) sortedItems(templateID string) []*entity.FormItem {
	var out []*entity.FormItem
	for _, it := range r.FormItems {
		if it.TemplateID == templateID && it.IsActive {
			out = append(out, r.item(it))
		}
	}
	sectionOrder := func(id string) int {
		if s, ok := r.Sections[id]; ok {
			return s.DisplayOrder
		}
		return 0
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := sectionOrder(out[i].SectionID), sectionOrder(out[j].SectionID)
		if si != sj {
			return si < sj
		}
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ItemCode < out[j].ItemCode
	})
	return out
}

func (r *Templates) ListItems(_ context.Context, templateID string) ([]*entity.FormItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedItems(templateID), nil
}

func (r *Templates) ReplaceOptions(_ context.Context, itemID string, opts []*entity.FormItemOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.FormItemOption, 0, len(opts))
	for _, o := range opts {
		if o.ID == "" {
			o.ID = newID()
		}
		o.ItemID = itemID
		cp := *o
		out = append(out, &cp)
	}
	r.Options[itemID] = out
	return nil
}

func (r *Templates) ReplaceValidations(_ context.Context, itemID string, rules []*entity.FormItemValidation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.FormItemValidation, 0, len(rules))
	for _, v := range rules {
		if v.ID == "" {
			v.ID = newID()
		}
		v.ItemID = itemID
		cp := *v
		out = append(out, &cp)
	}
	r.Validations[itemID] = out
	return nil
}

func (r *Templates) GetStructure(_ context.Context, templateID string) (*entity.TemplateStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.Items[templateID]
	if !ok {
		return nil, nil
	}
	tc := *t
	st := &entity.TemplateStructure{
		Template:    &tc,
		Options:     map[string][]*entity.FormItemOption{},
		Validations: map[string][]*entity.FormItemValidation{},
	}
	for _, s := range r.Sections {
		if s.TemplateID == templateID && s.IsActive {
			cp := *s
			st.Sections = append(st.Sections, &cp)
		}
	}
	sort.Slice(st.Sections, func(i, j int) bool { return st.Sections[i].DisplayOrder < st.Sections[j].DisplayOrder })
	st.Items = r.sortedItems(templateID)
	for _, it := range st.Items {
		for _, o := range r.Options[it.ID] {
			if o.IsActive {
				cp := *o
				st.Options[it.ID] = append(st.Options[it.ID], &cp)
			}
		}
		for _, v := range r.Validations[it.ID] {
			cp := *v
			st.Validations[it.ID] = append(st.Validations[it.ID], &cp)
		}
	}
	return st, nil
}

// ── Envíos ────────────────────────────────────────────────────────────────────

// Submissions fake de repository.SubmissionRepository.
type Submissions struct {
	repository.SubmissionRepository
	mu        sync.Mutex
	Items     map[string]*entity.FormSubmission
	Responses map[string]map[string]*entity.FormResponse // envío → ítem
	templates *Templates
}

// NewSubmissions fake vacío; ItemStats lee los ítems de templates.
func NewSubmissions(templates *Templates) *Submissions {
	return &Submissions{
		Items:     map[string]*entity.FormSubmission{},
		Responses: map[string]map[string]*entity.FormResponse{},
		templates: templates,
	}
}

func (r *Submissions) Create(_ context.Context, s *entity.FormSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.Items {
		if o.TemplateID == s.TemplateID && samePtr(o.TenantID, s.TenantID) &&
			o.ReportingYear == s.ReportingYear && o.ReportingMonth == s.ReportingMonth {
			return domain.ErrDuplicate
		}
	}
	if s.ID == "" {
		s.ID = newID()
	}
	cp := *s
	r.Items[s.ID] = &cp
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *Submissions) Update(_ context.Context, s *entity.FormSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[s.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	r.Items[s.ID] = &cp
	return nil
}

func (r *Submissions) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Items, id)
	delete(r.Responses, id)
	return nil
}

func (r *Submissions) GetByID(_ context.Context, id string) (*entity.FormSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.Items[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *Submissions) GetByPeriod(_ context.Context, templateID, tenantID string, year, month int) (*entity.FormSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Items {
		if s.TemplateID == templateID && s.TenantID != nil && *s.TenantID == tenantID &&
			s.ReportingYear == year && s.ReportingMonth == month {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *Submissions) List(_ context.Context, f repository.SubmissionFilter) ([]*entity.FormSubmission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FormSubmission
	for _, s := range r.Items {
		if f.TemplateID != "" && s.TemplateID != f.TemplateID {
			continue
		}
		if f.TenantIDs != nil && (s.TenantID == nil || !slices.Contains(f.TenantIDs, *s.TenantID)) {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.ReportingYear != 0 && s.ReportingYear != f.ReportingYear {
			continue
		}
		if f.ReportingMonth != 0 && s.ReportingMonth != f.ReportingMonth {
			continue
		}
		if f.SubmittedFrom != nil && (s.SubmittedAt == nil || s.SubmittedAt.Before(*f.SubmittedFrom)) {
			continue
		}
		if f.SubmittedTo != nil && (s.SubmittedAt == nil || s.SubmittedAt.After(*f.SubmittedTo)) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *Submissions) ListResponses(_ context.Context, submissionID string) ([]*entity.FormResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FormResponse
	for _, resp := range r.Responses[submissionID] {
		cp := *resp
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (r *Submissions) UpsertResponse(_ context.Context, resp *entity.FormResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byItem, ok := r.Responses[resp.SubmissionID]
	if !ok {
		byItem = map[string]*entity.FormResponse{}
		r.Responses[resp.SubmissionID] = byItem
	}
	if prev, ok := byItem[resp.ItemID]; ok {
		resp.ID = prev.ID
		resp.CreatedAt = prev.CreatedAt
	} else if resp.ID == "" {
		resp.ID = newID()
	}
	cp := *resp
	byItem[resp.ItemID] = &cp
	return nil
}

func (r *Submissions) ItemStats(ctx context.Context, templateID string, tenantIDs []string) ([]repository.ItemStatResult, error) {
	items, err := r.templates.ListItems(ctx, templateID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.ItemStatResult, 0, len(items))
	for _, it := range items {
		st := repository.ItemStatResult{ItemID: it.ID, ItemCode: it.ItemCode, ItemName: it.ItemName, SectionName: it.SectionName, DataType: it.DataType}
		var values []decimal.Decimal
		for sid, s := range r.Items {
			if s.TemplateID != templateID || !s.IsFinal() {
				continue
			}
			if tenantIDs != nil && (s.TenantID == nil || !slices.Contains(tenantIDs, *s.TenantID)) {
				continue
			}
			resp, ok := r.Responses[sid][it.ID]
			if !ok {
				continue
			}
			st.ResponseCount++
			if resp.NumericValue != nil {
				values = append(values, *resp.NumericValue)
			}
		}
		if len(values) > 0 {
			avg := decimal.Avg(values[0], values[1:]...)
			minimum := decimal.Min(values[0], values[1:]...)
			maximum := decimal.Max(values[0], values[1:]...)
			st.Average, st.Minimum, st.Maximum = &avg, &minimum, &maximum
		}
		out = append(out, st)
	}
	return out, nil
}
