// Package analytics contiene los tableros declarativos, sus proveedores de datos
// y los snapshots de desempeño por tenant y región.
package analytics

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/dto"
	"github.com/jhoicas/form-reporting-api/internal/domain"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/jhoicas/form-reporting-api/internal/domain/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// widgetTimeout tope de cada widget; un widget lento no retiene al tablero.
const widgetTimeout = 15 * time.Second

// maxParallelWidgets proveedores consultados a la vez por tablero.
const maxParallelWidgets = 4

const widgetErrorMessage = "No se pudieron cargar los datos del widget"

// WidgetQuery contexto resuelto que recibe un proveedor.
type WidgetQuery struct {
	ContextType string
	ContextID   string
	// TemplateID plantilla del contexto FormTemplate.
	TemplateID string
	// TenantIDs tenants visibles ya recortados por alcance y filtros; nil = todos.
	TenantIDs []string
	From      *time.Time
	To        *time.Time // exclusivo
	Status    string
}

// Analytics filtro equivalente para el repositorio de analítica.
func (q WidgetQuery) Analytics() repository.AnalyticsFilter {
	return repository.AnalyticsFilter{TemplateID: q.TemplateID, TenantIDs: q.TenantIDs, From: q.From, To: q.To}
}

// Provider entrega los datos de un conjunto de widgets.
type Provider interface {
	Key() string
	Supports() []string
	// Data nil sin datos.
	Data(ctx context.Context, widgetKey string, q WidgetQuery) (any, error)
}

func canHandle(p Provider, widgetKey string) bool {
	return slices.ContainsFunc(p.Supports(), func(k string) bool { return strings.EqualFold(k, widgetKey) })
}

// DashboardScope alcance del solicitante y opciones de contexto visibles.
type DashboardScope interface {
	Scope
	AccessibleTenants(ctx context.Context, c *access.Claims, search string) ([]*entity.Tenant, error)
	AccessibleRegions(ctx context.Context, c *access.Claims) ([]*entity.Region, error)
}

// DashboardUseCase resuelve tableros: cada widget en paralelo con su proveedor.
type DashboardUseCase struct {
	registry  *Registry
	providers []Provider
	scope     DashboardScope
	tenants   repository.TenantRepository
	templates repository.FormTemplateRepository
	parallel  int
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(registry *Registry, providers []Provider, scope DashboardScope, tenants repository.TenantRepository, templates repository.FormTemplateRepository) *DashboardUseCase {
	return &DashboardUseCase{registry: registry, providers: providers, scope: scope, tenants: tenants, templates: templates, parallel: maxParallelWidgets, now: time.Now}
}

// List tableros registrados.
func (uc *DashboardUseCase) List() []dto.DashboardSummary {
	all := uc.registry.All()
	out := make([]dto.DashboardSummary, 0, len(all))
	for _, d := range all {
		out = append(out, toSummary(d))
	}
	return out
}

// Get tablero con todos sus widgets resueltos. Un widget con error no falla el tablero.
func (uc *DashboardUseCase) Get(ctx context.Context, c *access.Claims, key string, f dto.DashboardFilter) (*dto.DashboardResponse, error) {
	d, ok := uc.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: tablero %q", domain.ErrNotFound, key)
	}
	q, err := uc.resolve(ctx, c, d, f)
	if err != nil {
		return nil, err
	}

	widgets := make([]dto.WidgetResponse, len(d.Widgets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallel)
	for i, w := range d.Widgets {
		g.Go(func() error {
			widgets[i] = uc.populate(gctx, w, q)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortStableFunc(widgets, func(a, b dto.WidgetResponse) int { return a.Order - b.Order })

	return &dto.DashboardResponse{
		DashboardSummary: toSummary(d),
		ContextID:        q.ContextID,
		Layout:           dto.LayoutResponse{Columns: d.Layout.Columns, Mode: d.Layout.Mode, RowGap: d.Layout.RowGap, ColumnGap: d.Layout.ColumnGap},
		Widgets:          widgets,
		LastRefreshed:    uc.now().UTC(),
	}, nil
}

// Widget un widget suelto, buscado en todos los tableros.
func (uc *DashboardUseCase) Widget(ctx context.Context, c *access.Claims, key string, f dto.DashboardFilter) (*dto.WidgetResponse, error) {
	w, d, ok := uc.registry.FindWidget(key)
	if !ok {
		return nil, fmt.Errorf("%w: widget %q", domain.ErrNotFound, key)
	}
	q, err := uc.resolve(ctx, c, d, f)
	if err != nil {
		return nil, err
	}
	out := uc.populate(ctx, w, q)
	return &out, nil
}

// ContextOptions opciones del selector de contexto visibles para el solicitante.
func (uc *DashboardUseCase) ContextOptions(ctx context.Context, c *access.Claims, contextType string) ([]dto.ContextOption, error) {
	out := []dto.ContextOption{}
	switch contextType {
	case ContextFormTemplate:
		tpls, _, err := uc.templates.List(ctx, repository.TemplateFilter{PublishStatus: entity.PublishPublished, OnlyActive: true})
		if err != nil {
			return nil, err
		}
		for _, t := range tpls {
			out = append(out, dto.ContextOption{ID: t.ID, Label: t.TemplateName, Group: t.TemplateCode})
		}
	case ContextTenant:
		tenants, err := uc.scope.AccessibleTenants(ctx, c, "")
		if err != nil {
			return nil, err
		}
		for _, t := range tenants {
			out = append(out, dto.ContextOption{ID: t.ID, Label: t.TenantName, Group: t.TenantType})
		}
	case ContextRegion:
		regions, err := uc.scope.AccessibleRegions(ctx, c)
		if err != nil {
			return nil, err
		}
		for _, r := range regions {
			out = append(out, dto.ContextOption{ID: r.ID, Label: r.RegionName})
		}
	case ContextNone, "":
	default:
		return nil, domain.Invalid("context_type", "debe ser None, FormTemplate, Tenant o Region")
	}
	return out, nil
}

// resolve traduce contexto y filtros a la consulta de los proveedores, recortando por alcance.
func (uc *DashboardUseCase) resolve(ctx context.Context, c *access.Claims, d *Dashboard, f dto.DashboardFilter) (WidgetQuery, error) {
	q := WidgetQuery{ContextType: d.ContextType, ContextID: strings.TrimSpace(f.ContextID), Status: f.Status}
	if f.ContextType != "" {
		q.ContextType = f.ContextType
	}
	allowed, err := uc.scope.Restriction(ctx, c)
	if err != nil {
		return q, err
	}
	q.TenantIDs = allowed

	only := func(tenantID string) error {
		ok, err := uc.scope.CanAccessTenant(ctx, c, tenantID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrForbidden
		}
		q.TenantIDs = []string{tenantID}
		return nil
	}
	if q.ContextID != "" {
		switch q.ContextType {
		case ContextFormTemplate:
			q.TemplateID = q.ContextID
		case ContextTenant:
			if err := only(q.ContextID); err != nil {
				return q, err
			}
		case ContextRegion:
			ids, err := uc.tenants.ListActiveIDsByRegion(ctx, q.ContextID)
			if err != nil {
				return q, err
			}
			q.TenantIDs = intersect(allowed, ids)
		}
	}
	if f.TenantID != "" {
		if err := only(f.TenantID); err != nil {
			return q, err
		}
	}

	var errs domain.ValidationErrors
	if f.From != "" {
		if t, err := time.Parse(time.DateOnly, f.From); err != nil {
			errs.Add("from", "formato esperado YYYY-MM-DD")
		} else {
			q.From = &t
		}
	}
	if f.To != "" {
		if t, err := time.Parse(time.DateOnly, f.To); err != nil {
			errs.Add("to", "formato esperado YYYY-MM-DD")
		} else {
			end := t.AddDate(0, 0, 1)
			q.To = &end
		}
	}
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		errs.Add("from", "debe ser anterior a to")
	}
	return q, errs.OrNil()
}

// populate nunca falla: el error queda en el estado del widget.
func (uc *DashboardUseCase) populate(ctx context.Context, w Widget, q WidgetQuery) (out dto.WidgetResponse) {
	out = dto.WidgetResponse{
		Key:        w.Key,
		Type:       w.Type,
		Title:      w.Title,
		Subtitle:   w.Subtitle,
		Size:       w.Size,
		ColSpan:    w.ColSpan(),
		Order:      w.Order,
		CanRefresh: w.CanRefresh,
		Status:     StatusEmpty,
	}
	var provider Provider
	for _, p := range uc.providers {
		if canHandle(p, w.Key) {
			provider = p
			break
		}
	}
	if provider == nil {
		log.Debug().Str("widget", w.Key).Msg("dashboard: widget sin proveedor")
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("widget", w.Key).Msg("dashboard: panic en proveedor")
			out.Status, out.ErrorMessage, out.Data = StatusError, widgetErrorMessage, nil
		}
	}()

	wctx, cancel := context.WithTimeout(ctx, widgetTimeout)
	defer cancel()
	data, err := provider.Data(wctx, w.Key, q)
	switch {
	case err != nil:
		log.Error().Err(err).Str("widget", w.Key).Str("provider", provider.Key()).Msg("dashboard: error cargando widget")
		out.Status, out.ErrorMessage = StatusError, widgetErrorMessage
	case data != nil:
		out.Status, out.Data = StatusSuccess, data
	}
	return out
}

func toSummary(d *Dashboard) dto.DashboardSummary {
	return dto.DashboardSummary{
		Key:                d.Key,
		Title:              d.Title,
		Description:        d.Description,
		Icon:               d.Icon,
		ContextType:        d.ContextType,
		HasContextSelector: d.HasContextSelector,
		HasFilterBar:       d.HasFilterBar,
	}
}

// intersect ids dentro de allowed; allowed nil = todos.
func intersect(allowed, ids []string) []string {
	if allowed == nil {
		if ids == nil {
			return []string{}
		}
		return ids
	}
	out := []string{}
	for _, id := range ids {
		if slices.Contains(allowed, id) {
			out = append(out, id)
		}
	}
	return out
}
