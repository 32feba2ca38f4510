package analytics

import "strings"

// Tipos de contexto de un tablero.
const (
	ContextNone         = "None"
	ContextFormTemplate = "FormTemplate"
	ContextTenant       = "Tenant"
	ContextRegion       = "Region"
)

// Tipos de widget.
const (
	WidgetStatCard  = "StatCard"
	WidgetLineChart = "LineChart"
	WidgetBarChart  = "BarChart"
	WidgetPieChart  = "PieChart"
	WidgetGauge     = "Gauge"
	WidgetDataTable = "DataTable"
	WidgetList      = "List"
)

// Tamaños de widget sobre una grilla de 12 columnas.
const (
	SizeSmall  = "Small"
	SizeMedium = "Medium"
	SizeLarge  = "Large"
	SizeFull   = "Full"
)

// Estados de un widget resuelto.
const (
	StatusSuccess = "Success"
	StatusEmpty   = "Empty"
	StatusError   = "Error"
)

// Layout grilla del tablero.
type Layout struct {
	Columns   int
	Mode      string
	RowGap    string
	ColumnGap string
}

// Widget declaración de un widget.
type Widget struct {
	Key        string
	Type       string
	Title      string
	Subtitle   string
	Size       string
	Order      int
	CanRefresh bool
}

// ColSpan columnas que ocupa según su tamaño.
func (w Widget) ColSpan() int {
	switch w.Size {
	case SizeSmall:
		return 3
	case SizeLarge:
		return 6
	case SizeFull:
		return 12
	}
	return 4
}

// Dashboard declaración de un tablero.
type Dashboard struct {
	Key                string
	Title              string
	Description        string
	Icon               string
	ContextType        string
	HasContextSelector bool
	HasFilterBar       bool
	Layout             Layout
	Widgets            []Widget
}

// Registry tableros indexados por clave sin distinguir mayúsculas.
type Registry struct {
	byKey map[string]*Dashboard
	order []string
}

// NewRegistry registra los tableros en el orden dado.
func NewRegistry(dashboards ...Dashboard) *Registry {
	r := &Registry{byKey: make(map[string]*Dashboard, len(dashboards))}
	for _, d := range dashboards {
		r.Register(d)
	}
	return r
}

// Register agrega o reemplaza un tablero.
func (r *Registry) Register(d Dashboard) {
	key := strings.ToLower(d.Key)
	if d.Layout.Columns == 0 {
		d.Layout = defaultLayout
	}
	if _, ok := r.byKey[key]; !ok {
		r.order = append(r.order, key)
	}
	r.byKey[key] = &d
}

// Get tablero por clave.
func (r *Registry) Get(key string) (*Dashboard, bool) {
	d, ok := r.byKey[strings.ToLower(strings.TrimSpace(key))]
	return d, ok
}

// All tableros en orden de registro.
func (r *Registry) All() []*Dashboard {
	out := make([]*Dashboard, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// FindWidget busca el widget en todos los tableros y devuelve también su tablero.
func (r *Registry) FindWidget(key string) (Widget, *Dashboard, bool) {
	for _, d := range r.All() {
		for _, w := range d.Widgets {
			if strings.EqualFold(w.Key, key) {
				return w, d, true
			}
		}
	}
	return Widget{}, nil, false
}

var defaultLayout = Layout{Columns: 12, Mode: "Auto", RowGap: "1rem", ColumnGap: "1rem"}

// DefaultRegistry tableros de estadísticas de formularios, puntajes y organización.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Dashboard{
			Key:                "form-statistics",
			Title:              "Estadísticas de formularios",
			Description:        "Envíos, tasa de completitud y pendientes por plantilla",
			Icon:               "ri-bar-chart-box-line",
			ContextType:        ContextFormTemplate,
			HasContextSelector: true,
			HasFilterBar:       true,
			Widgets: []Widget{
				{Key: "form-template-count", Type: WidgetStatCard, Title: "Formularios publicados", Size: SizeSmall, Order: 1, CanRefresh: true},
				{Key: "form-submission-count", Type: WidgetStatCard, Title: "Envíos", Size: SizeSmall, Order: 2, CanRefresh: true},
				{Key: "form-completion-rate", Type: WidgetStatCard, Title: "Completitud", Size: SizeSmall, Order: 3, CanRefresh: true},
				{Key: "form-pending-count", Type: WidgetStatCard, Title: "Pendientes", Size: SizeSmall, Order: 4, CanRefresh: true},
				{Key: "form-submissions-trend", Type: WidgetLineChart, Title: "Envíos por período", Size: SizeLarge, Order: 5, CanRefresh: true},
				{Key: "form-submissions-by-status", Type: WidgetPieChart, Title: "Envíos por estado", Size: SizeLarge, Order: 6, CanRefresh: true},
				{Key: "form-submissions-by-tenant", Type: WidgetBarChart, Title: "Envíos por tenant", Size: SizeFull, Order: 7, CanRefresh: true},
				{Key: "form-recent-submissions", Type: WidgetDataTable, Title: "Envíos recientes", Size: SizeFull, Order: 8, CanRefresh: true},
			},
		},
		Dashboard{
			Key:                "form-scoring",
			Title:              "Puntajes de formularios",
			Description:        "Puntajes, secciones y desempeño por tenant",
			Icon:               "ri-line-chart-line",
			ContextType:        ContextFormTemplate,
			HasContextSelector: true,
			HasFilterBar:       true,
			Widgets: []Widget{
				{Key: "score-average", Type: WidgetGauge, Title: "Puntaje promedio", Size: SizeMedium, Order: 1, CanRefresh: true},
				{Key: "score-distribution", Type: WidgetPieChart, Title: "Distribución de puntajes", Size: SizeMedium, Order: 2, CanRefresh: true},
				{Key: "score-submission-count", Type: WidgetStatCard, Title: "Envíos puntuados", Size: SizeMedium, Order: 3, CanRefresh: true},
				{Key: "score-by-section", Type: WidgetBarChart, Title: "Puntaje por sección", Size: SizeLarge, Order: 4, CanRefresh: true},
				{Key: "score-by-tenant", Type: WidgetBarChart, Title: "Puntaje por tenant", Size: SizeLarge, Order: 5, CanRefresh: true},
				{Key: "score-item-stats", Type: WidgetDataTable, Title: "Estadísticas por campo", Size: SizeFull, Order: 6, CanRefresh: true},
			},
		},
		Dashboard{
			Key:                "organization-overview",
			Title:              "Resumen organizacional",
			Description:        "Estructura visible y cumplimiento por región",
			Icon:               "ri-building-line",
			ContextType:        ContextRegion,
			HasContextSelector: true,
			Widgets: []Widget{
				{Key: "org-region-count", Type: WidgetStatCard, Title: "Regiones", Size: SizeSmall, Order: 1, CanRefresh: true},
				{Key: "org-tenant-count", Type: WidgetStatCard, Title: "Tenants", Size: SizeSmall, Order: 2, CanRefresh: true},
				{Key: "org-department-count", Type: WidgetStatCard, Title: "Departamentos", Size: SizeSmall, Order: 3, CanRefresh: true},
				{Key: "org-user-count", Type: WidgetStatCard, Title: "Usuarios", Size: SizeSmall, Order: 4, CanRefresh: true},
				{Key: "org-tenants-by-type", Type: WidgetPieChart, Title: "Tenants por tipo", Size: SizeLarge, Order: 5, CanRefresh: true},
				{Key: "org-compliance-by-region", Type: WidgetBarChart, Title: "Cumplimiento por región", Subtitle: "Último consolidado mensual", Size: SizeLarge, Order: 6, CanRefresh: true},
			},
		},
	)
}
