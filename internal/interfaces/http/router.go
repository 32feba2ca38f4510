package http

import (
	"github.com/gofiber/fiber/v2"
	appanalytics "github.com/jhoicas/form-reporting-api/internal/application/analytics"
	"github.com/jhoicas/form-reporting-api/internal/application/auth"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	UserUC       *usecase.UserUseCase
	RoleUC       *usecase.RoleUseCase
	RegionUC     *usecase.RegionUseCase
	TenantUC     *usecase.TenantUseCase
	DepartmentUC *usecase.DepartmentUseCase
	GroupUC      *usecase.TenantGroupUseCase
	FormUC       *usecase.FormUseCase
	SubmissionUC *usecase.SubmissionUseCase
	AssignmentUC *usecase.AssignmentUseCase
	RuleUC       *usecase.SubmissionRuleUseCase
	OptionUC     *usecase.OptionTemplateUseCase
	MetricUC     *usecase.MetricUseCase
	ReportUC     *usecase.ReportUseCase
	DashboardUC  *appanalytics.DashboardUseCase
	Snapshots    *appanalytics.SnapshotService

	Auth   AuthConfig
	Cookie CookieConfig
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth (login público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Cookie)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (Bearer Token o cookie de sesión)
	protected := api.Group("/", AuthMiddleware(deps.Auth))

	authGroup := protected.Group("/auth")
	authGroup.Post("/logout", authHandler.Logout)
	authGroup.Get("/me", authHandler.Me)
	authGroup.Post("/change-password", authHandler.ChangePassword)

	usersView := RequirePermission(entity.PermUsersView, entity.PermUsersManage)
	usersManage := RequirePermission(entity.PermUsersManage)
	rolesManage := RequirePermission(entity.PermRolesManage)
	orgView := RequirePermission(entity.PermOrgView, entity.PermOrgManage)
	orgManage := RequirePermission(entity.PermOrgManage)
	formsManage := RequirePermission(entity.PermFormsManage)
	fill := RequirePermission(entity.PermSubmissionsFill)
	review := RequirePermission(entity.PermSubmissionsReview)
	metricsManage := RequirePermission(entity.PermMetricsManage)
	reportsView := RequirePermission(entity.PermReportsView, entity.PermReportsManage)
	reportsManage := RequirePermission(entity.PermReportsManage)
	dashboardsView := RequirePermission(entity.PermDashboardsView)

	// Users
	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", usersView, userHandler.List)
	users.Get("/lookup", userHandler.Lookup)
	users.Get("/:id", usersView, userHandler.GetByID)
	users.Post("/", usersManage, userHandler.Create)
	users.Put("/:id", usersManage, userHandler.Update)
	users.Post("/:id/activate", usersManage, userHandler.Activate)
	users.Post("/:id/deactivate", usersManage, userHandler.Deactivate)
	users.Post("/:id/reset-password", usersManage, userHandler.ResetPassword)
	users.Post("/:id/unlock", usersManage, userHandler.Unlock)
	users.Put("/:id/roles", usersManage, userHandler.AssignRoles)
	users.Get("/:id/tenant-access", usersView, userHandler.ListTenantAccess)
	users.Post("/:id/tenant-access", usersManage, userHandler.GrantTenantAccess)
	users.Delete("/:id/tenant-access/:tenantId", usersManage, userHandler.RevokeTenantAccess)

	// Roles
	roles := protected.Group("/roles")
	roleHandler := NewRoleHandler(deps.RoleUC)
	roles.Get("/modules", usersView, roleHandler.ListModules)
	roles.Get("/scope-levels", usersView, roleHandler.ListScopeLevels)
	roles.Get("/", usersView, roleHandler.List)
	roles.Get("/:id", usersView, roleHandler.GetByID)
	roles.Post("/", rolesManage, roleHandler.Create)
	roles.Put("/:id", rolesManage, roleHandler.Update)
	roles.Delete("/:id", rolesManage, roleHandler.Delete)
	roles.Put("/:id/permissions", rolesManage, roleHandler.SetPermissions)
	roles.Post("/:id/users", rolesManage, roleHandler.AssignUsers)

	// Organización
	orgHandler := NewOrganizationHandler(deps.RegionUC, deps.TenantUC, deps.DepartmentUC, deps.GroupUC)

	regions := protected.Group("/regions")
	regions.Get("/", orgView, orgHandler.ListRegions)
	regions.Get("/:id", orgView, orgHandler.GetRegion)
	regions.Post("/", orgManage, orgHandler.CreateRegion)
	regions.Put("/:id", orgManage, orgHandler.UpdateRegion)
	regions.Delete("/:id", orgManage, orgHandler.DeleteRegion)

	tenants := protected.Group("/tenants")
	tenants.Get("/", orgView, orgHandler.ListTenants)
	tenants.Get("/:id", orgView, orgHandler.GetTenant)
	tenants.Post("/", orgManage, orgHandler.CreateTenant)
	tenants.Put("/:id", orgManage, orgHandler.UpdateTenant)
	tenants.Delete("/:id", orgManage, orgHandler.DeleteTenant)
	tenants.Get("/:id/departments", orgView, orgHandler.ListDepartments)
	tenants.Get("/:id/departments/tree", orgView, orgHandler.DepartmentTree)

	departments := protected.Group("/departments")
	departments.Get("/:id", orgView, orgHandler.GetDepartment)
	departments.Post("/", orgManage, orgHandler.CreateDepartment)
	departments.Put("/:id", orgManage, orgHandler.UpdateDepartment)
	departments.Delete("/:id", orgManage, orgHandler.DeleteDepartment)

	groups := protected.Group("/tenant-groups")
	groups.Get("/", orgView, orgHandler.ListGroups)
	groups.Get("/:id", orgView, orgHandler.GetGroup)
	groups.Post("/", orgManage, orgHandler.CreateGroup)
	groups.Put("/:id", orgManage, orgHandler.UpdateGroup)
	groups.Delete("/:id", orgManage, orgHandler.DeleteGroup)
	groups.Post("/:id/members", orgManage, orgHandler.AddGroupMembers)
	groups.Delete("/:id/members/:tenantId", orgManage, orgHandler.RemoveGroupMember)

	// Formularios (lectura abierta a cualquier sesión: se necesitan para diligenciar)
	formHandler := NewFormHandler(deps.FormUC)
	submissionHandler := NewSubmissionHandler(deps.SubmissionUC)
	metricHandler := NewMetricHandler(deps.MetricUC)
	ruleHandler := NewSubmissionRuleHandler(deps.RuleUC)
	assignmentHandler := NewAssignmentHandler(deps.AssignmentUC)
	optionHandler := NewOptionTemplateHandler(deps.OptionUC)

	categories := protected.Group("/form-categories")
	categories.Get("/", formHandler.ListCategories)
	categories.Post("/", formsManage, formHandler.CreateCategory)
	categories.Put("/:id", formsManage, formHandler.UpdateCategory)
	categories.Delete("/:id", formsManage, formHandler.DeleteCategory)

	templates := protected.Group("/form-templates")
	templates.Get("/", formHandler.ListTemplates)
	templates.Get("/:id", formHandler.GetTemplate)
	templates.Post("/", formsManage, formHandler.CreateTemplate)
	templates.Put("/:id", formsManage, formHandler.UpdateTemplate)
	templates.Get("/:id/publish-check", formsManage, formHandler.PublishCheck)
	templates.Post("/:id/publish", formsManage, formHandler.Publish)
	templates.Post("/:id/archive", formsManage, formHandler.Archive)
	templates.Post("/:id/deprecate", formsManage, formHandler.Deprecate)
	templates.Post("/:id/versions", formsManage, formHandler.CreateVersion)
	templates.Post("/:id/sections", formsManage, formHandler.CreateSection)
	templates.Post("/:id/items", formsManage, formHandler.CreateItem)
	templates.Get("/:id/field-performance", reportsView, submissionHandler.FieldPerformance)
	templates.Get("/:id/metrics", metricsManage, metricHandler.Configure)
	templates.Get("/:id/unmapped-fields", metricsManage, metricHandler.UnmappedFields)
	templates.Get("/:id/submission-rules", ruleHandler.ListByTemplate)
	templates.Post("/:id/submission-rules", formsManage, ruleHandler.Create)
	templates.Get("/:id/submission-timing", ruleHandler.Timing)

	sections := protected.Group("/form-sections", formsManage)
	sections.Put("/:id", formHandler.UpdateSection)
	sections.Delete("/:id", formHandler.DeleteSection)

	items := protected.Group("/form-items", formsManage)
	items.Put("/:id", formHandler.UpdateItem)
	items.Delete("/:id", formHandler.DeleteItem)
	items.Put("/:id/options", formHandler.ReplaceOptions)
	items.Put("/:id/validations", formHandler.ReplaceValidations)

	rules := protected.Group("/submission-rules")
	rules.Get("/reminders", formsManage, ruleHandler.Reminders)
	rules.Get("/:id", ruleHandler.Get)
	rules.Put("/:id", formsManage, ruleHandler.Update)
	rules.Delete("/:id", formsManage, ruleHandler.Delete)

	// Asignaciones (/mine abierta a cualquier sesión)
	assignments := protected.Group("/form-assignments")
	assignments.Get("/mine", assignmentHandler.Mine)
	assignments.Get("/statistics", formsManage, assignmentHandler.Statistics)
	assignments.Post("/bulk-extend", formsManage, assignmentHandler.BulkExtend)
	assignments.Post("/bulk-cancel", formsManage, assignmentHandler.BulkCancel)
	assignments.Get("/", formsManage, assignmentHandler.List)
	assignments.Get("/:id", formsManage, assignmentHandler.Get)
	assignments.Get("/:id/targets", formsManage, assignmentHandler.Targets)
	assignments.Post("/", formsManage, assignmentHandler.Create)
	assignments.Put("/:id", formsManage, assignmentHandler.Update)
	assignments.Post("/:id/cancel", formsManage, assignmentHandler.Cancel)
	assignments.Post("/:id/suspend", formsManage, assignmentHandler.Suspend)
	assignments.Post("/:id/reactivate", formsManage, assignmentHandler.Reactivate)
	assignments.Post("/:id/extend", formsManage, assignmentHandler.Extend)

	// Catálogos de opciones
	optionTemplates := protected.Group("/option-templates")
	optionTemplates.Get("/", optionHandler.List)
	optionTemplates.Get("/categories", optionHandler.Categories)
	optionTemplates.Get("/code/:code", optionHandler.GetByCode)
	optionTemplates.Get("/:id", optionHandler.Get)
	optionTemplates.Post("/", formsManage, optionHandler.Create)
	optionTemplates.Put("/:id", formsManage, optionHandler.Update)
	optionTemplates.Delete("/:id", formsManage, optionHandler.Delete)
	optionTemplates.Post("/:id/apply", formsManage, optionHandler.Apply)

	// Envíos (el alcance por tenant lo aplica el caso de uso)
	submissions := protected.Group("/submissions")
	submissions.Get("/", submissionHandler.List)
	submissions.Get("/:id", submissionHandler.Get)
	submissions.Get("/:id/breakdown", submissionHandler.Breakdown)
	submissions.Get("/:id/files/:itemId", submissionHandler.DownloadFile)
	submissions.Post("/", fill, submissionHandler.Create)
	submissions.Put("/:id/responses", fill, submissionHandler.SaveResponses)
	submissions.Post("/:id/files/:itemId", fill, submissionHandler.UploadFile)
	submissions.Post("/:id/submit", fill, submissionHandler.Submit)
	submissions.Delete("/:id", fill, submissionHandler.Delete)
	submissions.Post("/:id/review", review, submissionHandler.Review)
	submissions.Get("/:id/population-logs", metricsManage, metricHandler.PopulationLogs)
	submissions.Post("/:id/recalculate", metricsManage, metricHandler.Recalculate)

	// Métricas
	metricsGroup := protected.Group("/metrics")
	metricsGroup.Get("/threshold-suggestions", metricsManage, metricHandler.SuggestThresholds)
	metricsGroup.Get("/", metricHandler.ListMetrics)
	metricsGroup.Get("/:id", metricHandler.GetMetric)
	metricsGroup.Post("/", metricsManage, metricHandler.CreateMetric)
	metricsGroup.Put("/:id", metricsManage, metricHandler.UpdateMetric)
	metricsGroup.Delete("/:id", metricsManage, metricHandler.DeactivateMetric)

	mappings := protected.Group("/metric-mappings", metricsManage)
	mappings.Post("/items", metricHandler.CreateItemMapping)
	mappings.Put("/items/:id", metricHandler.UpdateItemMapping)
	mappings.Delete("/items/:id", metricHandler.DeleteItemMapping)
	mappings.Post("/items/:id/test", metricHandler.TestMapping)
	mappings.Post("/sections", metricHandler.CreateSectionMapping)
	mappings.Put("/sections/:id", metricHandler.UpdateSectionMapping)
	mappings.Delete("/sections/:id", metricHandler.DeleteSectionMapping)
	mappings.Post("/templates", metricHandler.CreateTemplateMapping)
	mappings.Put("/templates/:id", metricHandler.UpdateTemplateMapping)
	mappings.Delete("/templates/:id", metricHandler.DeleteTemplateMapping)

	protected.Get("/tenant-metrics", RequirePermission(entity.PermMetricsManage, entity.PermDashboardsView, entity.PermReportsView), metricHandler.TenantMetrics)

	// Reportes
	reports := protected.Group("/reports", RequireModule("Reports"))
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/system-fields", reportsView, reportHandler.SystemFields)
	reports.Get("/", reportsView, reportHandler.List)
	reports.Get("/:id", reportsView, reportHandler.Get)
	reports.Post("/", reportsManage, reportHandler.Create)
	reports.Put("/:id", reportsManage, reportHandler.Update)
	reports.Delete("/:id", reportsManage, reportHandler.Delete)
	reports.Post("/:id/run", reportsView, reportHandler.Run)
	reports.Post("/:id/export", reportsView, reportHandler.Export)
	reports.Get("/:id/executions", reportsView, reportHandler.Executions)
	reports.Get("/:id/schedules", reportsView, reportHandler.Schedules)
	reports.Post("/:id/schedules", reportsManage, reportHandler.CreateSchedule)
	reports.Put("/:id/schedules/:scheduleId", reportsManage, reportHandler.UpdateSchedule)
	reports.Delete("/:id/schedules/:scheduleId", reportsManage, reportHandler.DeleteSchedule)
	reports.Get("/:id/access", reportsView, reportHandler.AccessList)
	reports.Post("/:id/access", reportsManage, reportHandler.GrantAccess)
	reports.Delete("/:id/access/:accessId", reportsManage, reportHandler.RevokeAccess)

	// Dashboards y snapshots
	dashboards := protected.Group("/dashboards", dashboardsView)
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboards.Get("/", dashboardHandler.List)
	dashboards.Get("/context-options/:type", dashboardHandler.ContextOptions)
	dashboards.Get("/widgets/:key", dashboardHandler.Widget)
	dashboards.Get("/:key", dashboardHandler.Get)

	snapshots := protected.Group("/snapshots")
	analyticsHandler := NewAnalyticsHandler(deps.Snapshots)
	snapshots.Post("/generate", RequirePermission(entity.PermOrgManage, entity.PermMetricsManage), analyticsHandler.Generate)
	snapshots.Get("/tenants/:id", dashboardsView, analyticsHandler.TenantSnapshots)
	snapshots.Get("/regions/:id", dashboardsView, analyticsHandler.RegionalSnapshots)
}
