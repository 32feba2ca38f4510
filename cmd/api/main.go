package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	_ "github.com/jhoicas/form-reporting-api/docs"
	appanalytics "github.com/jhoicas/form-reporting-api/internal/application/analytics"
	"github.com/jhoicas/form-reporting-api/internal/application/auth"
	"github.com/jhoicas/form-reporting-api/internal/application/population"
	"github.com/jhoicas/form-reporting-api/internal/application/ports"
	"github.com/jhoicas/form-reporting-api/internal/application/scheduler"
	"github.com/jhoicas/form-reporting-api/internal/application/scope"
	"github.com/jhoicas/form-reporting-api/internal/application/usecase"
	"github.com/jhoicas/form-reporting-api/internal/infrastructure/cache"
	"github.com/jhoicas/form-reporting-api/internal/infrastructure/export"
	"github.com/jhoicas/form-reporting-api/internal/infrastructure/postgres"
	"github.com/jhoicas/form-reporting-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/form-reporting-api/internal/interfaces/http"
	"github.com/jhoicas/form-reporting-api/pkg/config"
	"github.com/jhoicas/form-reporting-api/pkg/logger"
)

//go:generate swag init -g cmd/api/main.go -d ../../ -o ../../docs --outputTypes json

// @title                       Form Reporting API
// @version                     1.0
// @description                 API multi-tenant de formularios, métricas, reportes y tableros.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	repos := postgres.NewRepos(pool)
	txRunner := postgres.NewTxRunner(pool)
	categoryRepo := postgres.NewFormCategoryRepository(pool)
	metricRepo := postgres.NewMetricDefinitionRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)
	reportQueryRepo := postgres.NewReportQueryRepository(pool)
	assignmentRepo := postgres.NewFormAssignmentRepository(pool)
	ruleRepo := postgres.NewSubmissionRuleRepository(pool)

	// Redis opcional: sin REDIS_ADDR los claims se arman en cada petición y la lista negra vive en memoria.
	var (
		claimsCache ports.ClaimsCache    = cache.NopClaimsCache{}
		reportCache ports.ReportCache    = cache.NopReportCache{}
		blacklist   ports.TokenBlacklist = cache.NewMemoryBlacklist()
	)
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(ctx, cfg.Redis, cfg.DB.ConnectRetries)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		claimsCache = cache.NewClaimsCache(rdb, cfg.Redis.ClaimsTTL)
		reportCache = cache.NewReportCache(rdb, cfg.Redis.ReportCacheTTL)
		blacklist = cache.NewTokenBlacklist(rdb, cfg.JWT.Secret)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: cache desactivado")
	}

	var objects ports.ObjectStorage = storage.Disabled{}
	if cfg.Storage.Enabled() {
		minioStorage, err := storage.NewMinIOStorage(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("almacenamiento de objetos")
		}
		objects = minioStorage
	} else {
		log.Warn().Msg("almacenamiento de objetos no configurado: adjuntos y exportaciones guardadas desactivados")
	}

	scopeSvc := scope.NewService(repos.Tenants, repos.Departments, repos.Regions, repos.Users)
	claimsBuilder := auth.NewClaimsBuilder(repos.Users, repos.Tenants, claimsCache)
	authUC := auth.NewAuthUseCase(repos.Users, claimsBuilder, blacklist, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, auth.LockoutPolicy{
		MaxFailedAttempts: cfg.Security.MaxFailedAttempts,
		LockoutMinutes:    cfg.Security.LockoutMinutes,
	})

	engine := population.NewEngine(repos.Submissions, repos.Mappings, metricRepo, repos.TenantMetrics)

	userUC := usecase.NewUserUseCase(repos.Users, repos.Tenants, repos.Departments, repos.Roles, scopeSvc, claimsBuilder)
	roleUC := usecase.NewRoleUseCase(repos.Roles, txRunner, claimsBuilder)
	regionUC := usecase.NewRegionUseCase(repos.Regions)
	tenantUC := usecase.NewTenantUseCase(repos.Tenants, repos.Departments, repos.Regions, repos.Groups, repos.Users, txRunner, scopeSvc, claimsBuilder)
	departmentUC := usecase.NewDepartmentUseCase(repos.Departments, repos.Tenants, repos.Users, scopeSvc)
	groupUC := usecase.NewTenantGroupUseCase(repos.Groups, repos.Tenants)
	formUC := usecase.NewFormUseCase(categoryRepo, repos.Templates, txRunner)
	assignmentUC := usecase.NewAssignmentUseCase(assignmentRepo, repos.Templates, repos.Tenants, repos.Groups, repos.Roles, repos.Users, repos.Departments, repos.Submissions, ruleRepo)
	ruleUC := usecase.NewSubmissionRuleUseCase(ruleRepo, repos.Templates)
	optionUC := usecase.NewOptionTemplateUseCase(repos.Options, repos.Templates, txRunner)
	submissionUC := usecase.NewSubmissionUseCase(repos.Submissions, repos.Templates, scopeSvc, objects, engine, txRunner, assignmentUC, ruleUC)
	metricUC := usecase.NewMetricUseCase(metricRepo, repos.Mappings, repos.Templates, repos.Submissions, repos.TenantMetrics, scopeSvc, engine)
	reportUC := usecase.NewReportUseCase(
		repos.Reports, reportQueryRepo, repos.Templates, metricRepo, repos.Users,
		scopeSvc, reportCache, objects, export.All(),
		usecase.ReportConfig{MaxRows: cfg.Reports.MaxRows, DefaultTimezone: cfg.Reports.DefaultTimezone},
	)

	providers := []appanalytics.Provider{
		appanalytics.NewFormProvider(analyticsRepo, repos.Submissions, repos.Templates),
		appanalytics.NewScoringProvider(repos.Templates, repos.Submissions),
		appanalytics.NewOrganizationProvider(analyticsRepo, repos.Regions, repos.Tenants, snapshotRepo),
	}
	dashboardUC := appanalytics.NewDashboardUseCase(appanalytics.DefaultRegistry(), providers, scopeSvc, repos.Tenants, repos.Templates)
	snapshotSvc := appanalytics.NewSnapshotService(
		repos.Tenants, repos.Regions, repos.Templates, repos.Submissions,
		repos.TenantMetrics, analyticsRepo, snapshotRepo, scopeSvc,
	)

	// Reportes programados: corren con los claims de su creador.
	worker := scheduler.NewWorker(reportUC, claimsBuilder, cfg.Reports.SchedulerInterval).WithAssignmentExpiry(assignmentUC)
	go worker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: cfg.HTTP.SwaggerFile,
		Path:     "docs",
		Title:    "Form Reporting API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		UserUC:       userUC,
		RoleUC:       roleUC,
		RegionUC:     regionUC,
		TenantUC:     tenantUC,
		DepartmentUC: departmentUC,
		GroupUC:      groupUC,
		FormUC:       formUC,
		SubmissionUC: submissionUC,
		AssignmentUC: assignmentUC,
		RuleUC:       ruleUC,
		OptionUC:     optionUC,
		MetricUC:     metricUC,
		ReportUC:     reportUC,
		DashboardUC:  dashboardUC,
		Snapshots:    snapshotSvc,
		Auth: httpRouter.AuthConfig{
			Secret:     cfg.JWT.Secret,
			CookieName: cfg.JWT.CookieName,
			Revoked:    authUC,
			Claims:     claimsBuilder,
		},
		Cookie: httpRouter.CookieConfig{
			Name:   cfg.JWT.CookieName,
			Secure: cfg.JWT.CookieSecure,
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
