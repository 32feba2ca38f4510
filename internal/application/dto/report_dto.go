package dto

import "time"

// ColumnInput referencia a una columna: campo de formulario, métrica o campo de sistema.
type ColumnInput struct {
	SourceType      string  `json:"source_type" validate:"required,oneof=FormItem Metric System"`
	ItemID          *string `json:"item_id" validate:"omitempty,uuid"`
	MetricID        *string `json:"metric_id" validate:"omitempty,uuid"`
	SystemFieldName string  `json:"system_field_name" validate:"omitempty,max=100"`
}

// ReportFieldInput columna del resultado.
type ReportFieldInput struct {
	ColumnInput
	DisplayName     string `json:"display_name" validate:"omitempty,max=200"`
	DisplayOrder    int    `json:"display_order"`
	IsVisible       *bool  `json:"is_visible"`
	ColumnWidth     *int   `json:"column_width" validate:"omitempty,min=1,max=2000"`
	AggregationType string `json:"aggregation_type" validate:"omitempty,oneof=SUM AVG COUNT MIN MAX"`
	FormatString    string `json:"format_string" validate:"omitempty,max=50"`
}

// ReportFilterInput condición del reporte.
type ReportFilterInput struct {
	ColumnInput
	Operator          string `json:"operator" validate:"required"`
	FilterValue       string `json:"filter_value" validate:"omitempty,max=1000"`
	IsRequired        bool   `json:"is_required"`
	AllowUserOverride bool   `json:"allow_user_override"`
	IsParameterized   bool   `json:"is_parameterized"`
	ParameterLabel    string `json:"parameter_label" validate:"omitempty,max=200"`
	DefaultValue      string `json:"default_value" validate:"omitempty,max=500"`
	DisplayOrder      int    `json:"display_order"`
}

// ReportGroupingInput agrupación.
type ReportGroupingInput struct {
	ColumnInput
	GroupOrder     int    `json:"group_order"`
	SortDirection  string `json:"sort_direction" validate:"omitempty,oneof=ASC DESC asc desc"`
	ShowSubtotals  bool   `json:"show_subtotals"`
	ShowGrandTotal bool   `json:"show_grand_total"`
}

// ReportSortingInput ordenamiento.
type ReportSortingInput struct {
	ColumnInput
	SortOrder     int    `json:"sort_order"`
	SortDirection string `json:"sort_direction" validate:"omitempty,oneof=ASC DESC asc desc"`
}

// ReportRequest alta o modificación de una definición completa.
type ReportRequest struct {
	ReportName          string                `json:"report_name" validate:"required,max=200"`
	ReportCode          string                `json:"report_code" validate:"required,max=50"`
	Description         string                `json:"description" validate:"omitempty,max=1000"`
	TemplateID          *string               `json:"template_id" validate:"omitempty,uuid"`
	ReportType          string                `json:"report_type" validate:"required,oneof=Tabular Summary Chart"`
	Category            string                `json:"category" validate:"omitempty,max=100"`
	ChartType           string                `json:"chart_type" validate:"omitempty,max=50"`
	ChartConfiguration  string                `json:"chart_configuration"`
	LayoutConfiguration string                `json:"layout_configuration"`
	IsPublic            bool                  `json:"is_public"`
	Fields              []ReportFieldInput    `json:"fields" validate:"required,min=1,dive"`
	Filters             []ReportFilterInput   `json:"filters" validate:"dive"`
	Groupings           []ReportGroupingInput `json:"groupings" validate:"dive"`
	Sortings            []ReportSortingInput  `json:"sortings" validate:"dive"`
}

// ReportListRequest filtros del listado de reportes.
type ReportListRequest struct {
	PageRequest
	Category   string `query:"category"`
	TemplateID string `query:"template_id" validate:"omitempty,uuid"`
}

// ColumnResponse referencia a columna en la salida.
type ColumnResponse struct {
	SourceType      string  `json:"source_type"`
	ItemID          *string `json:"item_id,omitempty"`
	MetricID        *string `json:"metric_id,omitempty"`
	SystemFieldName string  `json:"system_field_name,omitempty"`
}

// ReportFieldResponse columna definida.
type ReportFieldResponse struct {
	ColumnResponse
	ID              string `json:"id"`
	DisplayName     string `json:"display_name"`
	DisplayOrder    int    `json:"display_order"`
	IsVisible       bool   `json:"is_visible"`
	ColumnWidth     *int   `json:"column_width,omitempty"`
	AggregationType string `json:"aggregation_type,omitempty"`
	FormatString    string `json:"format_string,omitempty"`
}

// ReportFilterResponse filtro definido.
type ReportFilterResponse struct {
	ColumnResponse
	ID                string `json:"id"`
	Operator          string `json:"operator"`
	FilterValue       string `json:"filter_value,omitempty"`
	IsRequired        bool   `json:"is_required"`
	AllowUserOverride bool   `json:"allow_user_override"`
	IsParameterized   bool   `json:"is_parameterized"`
	ParameterLabel    string `json:"parameter_label,omitempty"`
	DefaultValue      string `json:"default_value,omitempty"`
	DisplayOrder      int    `json:"display_order"`
}

// ReportGroupingResponse agrupación definida.
type ReportGroupingResponse struct {
	ColumnResponse
	ID             string `json:"id"`
	GroupOrder     int    `json:"group_order"`
	SortDirection  string `json:"sort_direction,omitempty"`
	ShowSubtotals  bool   `json:"show_subtotals"`
	ShowGrandTotal bool   `json:"show_grand_total"`
}

// ReportSortingResponse ordenamiento definido.
type ReportSortingResponse struct {
	ColumnResponse
	ID            string `json:"id"`
	SortOrder     int    `json:"sort_order"`
	SortDirection string `json:"sort_direction"`
}

// ReportResponse definición de reporte. Los hijos solo se incluyen en el detalle.
type ReportResponse struct {
	ID                  string                   `json:"id"`
	ReportName          string                   `json:"report_name"`
	ReportCode          string                   `json:"report_code"`
	Description         string                   `json:"description,omitempty"`
	TemplateID          *string                  `json:"template_id,omitempty"`
	ReportType          string                   `json:"report_type"`
	Category            string                   `json:"category,omitempty"`
	ChartType           string                   `json:"chart_type,omitempty"`
	ChartConfiguration  string                   `json:"chart_configuration,omitempty"`
	LayoutConfiguration string                   `json:"layout_configuration,omitempty"`
	IsPublic            bool                     `json:"is_public"`
	IsSystem            bool                     `json:"is_system"`
	OwnerUserID         string                   `json:"owner_user_id"`
	Version             int                      `json:"version"`
	LastRunAt           *time.Time               `json:"last_run_at,omitempty"`
	RunCount            int                      `json:"run_count"`
	Permission          string                   `json:"permission"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
	Fields              []ReportFieldResponse    `json:"fields,omitempty"`
	Filters             []ReportFilterResponse   `json:"filters,omitempty"`
	Groupings           []ReportGroupingResponse `json:"groupings,omitempty"`
	Sortings            []ReportSortingResponse  `json:"sortings,omitempty"`
}

// ── Ejecución ─────────────────────────────────────────────────────────────────

// RunReportRequest parámetros de ejecución por ID de filtro.
type RunReportRequest struct {
	Parameters map[string]string `json:"parameters"`
	// NoCache fuerza la ejecución aunque exista un resultado en cache.
	NoCache bool `json:"no_cache"`
}

// ReportColumnResponse columna visible del resultado.
type ReportColumnResponse struct {
	Key          string `json:"key"`
	Label        string `json:"label"`
	FormatString string `json:"format_string,omitempty"`
	Width        *int   `json:"width,omitempty"`
}

// RunReportResponse resultado de una ejecución.
type RunReportResponse struct {
	ReportID    string                 `json:"report_id"`
	ExecutionID string                 `json:"execution_id"`
	Columns     []ReportColumnResponse `json:"columns"`
	Rows        [][]any                `json:"rows"`
	RowCount    int                    `json:"row_count"`
	Truncated   bool                   `json:"truncated"`
	FromCache   bool                   `json:"from_cache"`
	ElapsedMs   int                    `json:"elapsed_ms"`
}

// ExportReportRequest exportación a archivo.
type ExportReportRequest struct {
	RunReportRequest
	Format string `json:"format" query:"format" validate:"required,oneof=CSV Excel PDF"`
}

// ExportedFile archivo generado.
type ExportedFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExecutionLogResponse traza de ejecución.
type ExecutionLogResponse struct {
	ID              string    `json:"id"`
	ExecutedBy      string    `json:"executed_by,omitempty"`
	ExecutedAt      time.Time `json:"executed_at"`
	ExecutionType   string    `json:"execution_type"`
	ScheduleID      *string   `json:"schedule_id,omitempty"`
	Status          string    `json:"status"`
	RowCount        *int      `json:"row_count,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ExecutionTimeMs int       `json:"execution_time_ms"`
	OutputFormat    string    `json:"output_format,omitempty"`
	OutputSizeKB    *int      `json:"output_size_kb,omitempty"`
	OutputPath      string    `json:"output_path,omitempty"`
	FromCache       bool      `json:"from_cache"`
}

// ── Programación ──────────────────────────────────────────────────────────────

// ScheduleRequest alta o modificación de una programación.
type ScheduleRequest struct {
	ScheduleName    string `json:"schedule_name" validate:"required,max=200"`
	ScheduleType    string `json:"schedule_type" validate:"required,oneof=Daily Weekly Monthly"`
	DayOfWeek       *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	DayOfMonth      *int   `json:"day_of_month" validate:"omitempty,min=1,max=31"`
	ExecutionTime   string `json:"execution_time" validate:"required"`
	Timezone        string `json:"timezone" validate:"omitempty,max=100"`
	OutputFormat    string `json:"output_format" validate:"required,oneof=CSV Excel PDF"`
	IncludeCharts   bool   `json:"include_charts"`
	PageOrientation string `json:"page_orientation" validate:"omitempty,oneof=Portrait Landscape"`
	Recipients      string `json:"recipients" validate:"omitempty,max=2000"`
	IsActive        *bool  `json:"is_active"`
}

// ScheduleResponse programación.
type ScheduleResponse struct {
	ID              string     `json:"id"`
	ReportID        string     `json:"report_id"`
	ScheduleName    string     `json:"schedule_name"`
	ScheduleType    string     `json:"schedule_type"`
	DayOfWeek       *int       `json:"day_of_week,omitempty"`
	DayOfMonth      *int       `json:"day_of_month,omitempty"`
	ExecutionTime   string     `json:"execution_time"`
	Timezone        string     `json:"timezone"`
	OutputFormat    string     `json:"output_format"`
	IncludeCharts   bool       `json:"include_charts"`
	PageOrientation string     `json:"page_orientation,omitempty"`
	Recipients      string     `json:"recipients,omitempty"`
	IsActive        bool       `json:"is_active"`
	LastRunAt       *time.Time `json:"last_run_at,omitempty"`
	NextRunAt       *time.Time `json:"next_run_at,omitempty"`
	LastRunStatus   string     `json:"last_run_status,omitempty"`
	LastRunError    string     `json:"last_run_error,omitempty"`
}

// ── Acceso ────────────────────────────────────────────────────────────────────

// ReportAccessRequest concesión de permiso sobre un reporte.
type ReportAccessRequest struct {
	AccessType      string     `json:"access_type" validate:"required,oneof=User Role Department"`
	UserID          *string    `json:"user_id" validate:"omitempty,uuid"`
	RoleID          *string    `json:"role_id" validate:"omitempty,uuid"`
	DepartmentID    *string    `json:"department_id" validate:"omitempty,uuid"`
	PermissionLevel string     `json:"permission_level" validate:"required,oneof=View Run Edit"`
	ExpiryDate      *time.Time `json:"expiry_date"`
}

// ReportAccessResponse concesión vigente o histórica.
type ReportAccessResponse struct {
	ID              string     `json:"id"`
	AccessType      string     `json:"access_type"`
	UserID          *string    `json:"user_id,omitempty"`
	RoleID          *string    `json:"role_id,omitempty"`
	DepartmentID    *string    `json:"department_id,omitempty"`
	PermissionLevel string     `json:"permission_level"`
	GrantedBy       string     `json:"granted_by"`
	GrantedAt       time.Time  `json:"granted_at"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	IsActive        bool       `json:"is_active"`
}
