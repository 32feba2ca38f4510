package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardFilter contexto y barra de filtros de GET /api/dashboards/{key}.
type DashboardFilter struct {
	ContextType string `query:"context_type" validate:"omitempty,oneof=None FormTemplate Tenant Region"`
	ContextID   string `query:"context_id" validate:"omitempty,uuid"`
	TenantID    string `query:"tenant_id" validate:"omitempty,uuid"`
	From        string `query:"from"` // YYYY-MM-DD
	To          string `query:"to"`   // YYYY-MM-DD, inclusive
	Status      string `query:"status" validate:"omitempty,oneof=Draft Submitted InApproval Approved Rejected"`
}

// DashboardSummary entrada del listado de tableros.
type DashboardSummary struct {
	Key                string `json:"key"`
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	Icon               string `json:"icon,omitempty"`
	ContextType        string `json:"context_type"`
	HasContextSelector bool   `json:"has_context_selector"`
	HasFilterBar       bool   `json:"has_filter_bar"`
}

// LayoutResponse grilla del tablero.
type LayoutResponse struct {
	Columns   int    `json:"columns"`
	Mode      string `json:"mode"`
	RowGap    string `json:"row_gap"`
	ColumnGap string `json:"column_gap"`
}

// DashboardResponse tablero con los datos de cada widget.
type DashboardResponse struct {
	DashboardSummary
	ContextID     string           `json:"context_id,omitempty"`
	Layout        LayoutResponse   `json:"layout"`
	Widgets       []WidgetResponse `json:"widgets"`
	LastRefreshed time.Time        `json:"last_refreshed"`
}

// WidgetResponse widget resuelto. Data depende de Type.
type WidgetResponse struct {
	Key          string `json:"key"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	Size         string `json:"size"`
	ColSpan      int    `json:"col_span"`
	Order        int    `json:"order"`
	CanRefresh   bool   `json:"can_refresh"`
	Status       string `json:"status"` // Success | Empty | Error
	ErrorMessage string `json:"error_message,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// ── Datos por tipo de widget ──────────────────────────────────────────────────

// StatCardData valor único con tendencia opcional.
type StatCardData struct {
	Value          string           `json:"value"`
	Label          string           `json:"label"`
	Icon           string           `json:"icon,omitempty"`
	IconColor      string           `json:"icon_color,omitempty"`
	SecondaryValue string           `json:"secondary_value,omitempty"`
	TrendValue     *decimal.Decimal `json:"trend_value,omitempty"` // % vs período anterior
	TrendDirection string           `json:"trend_direction,omitempty"`
	UpIsGood       bool             `json:"up_is_good"`
}

// ChartDataset serie de un gráfico.
type ChartDataset struct {
	Label string            `json:"label"`
	Data  []decimal.Decimal `json:"data"`
}

// ChartData datos de gráficos de líneas, barras o torta.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// GaugeData indicador con rango.
type GaugeData struct {
	Value decimal.Decimal `json:"value"`
	Min   decimal.Decimal `json:"min"`
	Max   decimal.Decimal `json:"max"`
	Label string          `json:"label"`
	Color string          `json:"color"`
}

// TableColumn columna de una tabla de widget.
type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// TableData tabla de widget.
type TableData struct {
	Columns []TableColumn    `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ContextOption opción del selector de contexto.
type ContextOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Group string `json:"group,omitempty"`
}
