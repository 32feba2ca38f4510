package entity

import "time"

// Tipos de reporte.
const (
	ReportTabular = "Tabular"
	ReportSummary = "Summary"
	ReportChart   = "Chart"
)

// Origen de una columna de reporte.
const (
	ColumnFormItem = "FormItem"
	ColumnMetric   = "Metric"
	ColumnSystem   = "System"
)

// Campos de sistema disponibles en reportes.
const (
	SysTenantName     = "tenant_name"
	SysTenantCode     = "tenant_code"
	SysTenantType     = "tenant_type"
	SysRegionName     = "region_name"
	SysTemplateName   = "template_name"
	SysReportingYear  = "reporting_year"
	SysReportingMonth = "reporting_month"
	SysStatus         = "status"
	SysSubmittedAt    = "submitted_at"
	SysSubmittedBy    = "submitted_by"
)

// ColumnRef referencia común de campos, filtros, agrupaciones y ordenamientos.
type ColumnRef struct {
	SourceType      string
	ItemID          *string
	MetricID        *string
	SystemFieldName string
}

// ReportDefinition reporte configurable sobre envíos de formularios.
type ReportDefinition struct {
	ID                  string
	ReportName          string
	ReportCode          string
	Description         string
	TemplateID          *string
	ReportType          string
	Category            string
	ChartType           string
	ChartConfiguration  string
	LayoutConfiguration string
	IsPublic            bool
	IsSystem            bool
	OwnerUserID         string
	Version             int
	IsActive            bool
	LastRunAt           *time.Time
	RunCount            int
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Fields    []ReportField
	Filters   []ReportFilter
	Groupings []ReportGrouping
	Sortings  []ReportSorting
}

// ReportField columna del resultado.
type ReportField struct {
	ID string
	ColumnRef
	DisplayName     string
	DisplayOrder    int
	IsVisible       bool
	ColumnWidth     *int
	AggregationType string // SUM, AVG, COUNT, MIN, MAX (solo con agrupaciones)
	FormatString    string
}

// Operadores de filtro.
const (
	OpEquals         = "Equals"
	OpNotEquals      = "NotEquals"
	OpGreaterThan    = "GreaterThan"
	OpGreaterOrEqual = "GreaterOrEqual"
	OpLessThan       = "LessThan"
	OpLessOrEqual    = "LessOrEqual"
	OpContains       = "Contains"
	OpStartsWith     = "StartsWith"
	OpIn             = "In"
	OpBetween        = "Between"
	OpIsNull         = "IsNull"
	OpIsNotNull      = "IsNotNull"
)

// ReportFilter condición sobre una columna. FilterValue admite listas separadas por coma (In, Between).
type ReportFilter struct {
	ID string
	ColumnRef
	Operator          string
	FilterValue       string
	IsRequired        bool
	AllowUserOverride bool
	IsParameterized   bool
	ParameterLabel    string
	DefaultValue      string
	DisplayOrder      int
}

// ReportGrouping agrupación del resultado.
type ReportGrouping struct {
	ID string
	ColumnRef
	GroupOrder     int
	SortDirection  string
	ShowSubtotals  bool
	ShowGrandTotal bool
}

// ReportSorting orden del resultado.
type ReportSorting struct {
	ID string
	ColumnRef
	SortOrder     int
	SortDirection string
}

// Frecuencias de programación.
const (
	ScheduleDaily   = "Daily"
	ScheduleWeekly  = "Weekly"
	ScheduleMonthly = "Monthly"
)

// Formatos de salida.
const (
	FormatCSV   = "CSV"
	FormatExcel = "Excel"
	FormatPDF   = "PDF"
)

// ReportSchedule ejecución periódica de un reporte.
type ReportSchedule struct {
	ID              string
	ReportID        string
	ScheduleName    string
	ScheduleType    string
	DayOfWeek       *int // 0 = domingo
	DayOfMonth      *int
	ExecutionTime   string // HH:MM
	Timezone        string
	OutputFormat    string
	IncludeCharts   bool
	PageOrientation string
	Recipients      string
	IsActive        bool
	LastRunAt       *time.Time
	NextRunAt       *time.Time
	LastRunStatus   string
	LastRunError    string
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Tipos y estados de ejecución.
const (
	ExecutionManual    = "Manual"
	ExecutionScheduled = "Scheduled"
	ExecutionExport    = "Export"

	ExecutionSuccess = "Success"
	ExecutionFailed  = "Failed"
)

// ReportExecutionLog traza de una ejecución.
type ReportExecutionLog struct {
	ID                   string
	ReportID             string
	ExecutedBy           string
	ExecutedAt           time.Time
	ExecutionType        string
	ScheduleID           *string
	Parameters           string
	Status               string
	RowCount             *int
	ErrorMessage         string
	ExecutionTimeMs      int
	QueryExecutionTimeMs *int
	RenderingTimeMs      *int
	OutputFormat         string
	OutputSizeKB         *int
	OutputPath           string
	FromCache            bool
}

// Tipos y niveles de acceso a reportes.
const (
	AccessUser       = "User"
	AccessRole       = "Role"
	AccessDepartment = "Department"

	PermissionView = "View"
	PermissionRun  = "Run"
	PermissionEdit = "Edit"
)

// ReportAccessControl permiso explícito sobre un reporte.
type ReportAccessControl struct {
	ID              string
	ReportID        string
	AccessType      string
	UserID          *string
	RoleID          *string
	DepartmentID    *string
	PermissionLevel string
	GrantedBy       string
	GrantedAt       time.Time
	ExpiryDate      *time.Time
	IsActive        bool
}

// PermissionRank orden de los niveles (Edit incluye Run que incluye View).
func PermissionRank(level string) int {
	switch level {
	case PermissionView:
		return 1
	case PermissionRun:
		return 2
	case PermissionEdit:
		return 3
	}
	return 0
}

// ReportColumn columna visible del resultado.
type ReportColumn struct {
	Key          string
	Label        string
	FormatString string
	Width        *int
}

// ReportResult filas devueltas por una ejecución. Cada fila se alinea con Columns.
type ReportResult struct {
	Columns   []ReportColumn
	Rows      [][]any
	Truncated bool
}
