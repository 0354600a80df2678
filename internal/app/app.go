package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/internal/controller"
	"formacion_residuos_backend/internal/repository"
	"formacion_residuos_backend/internal/service"
	"formacion_residuos_backend/pkg/database"
	"formacion_residuos_backend/pkg/logger"
	"formacion_residuos_backend/pkg/monitoring"
	"formacion_residuos_backend/pkg/security"
	"formacion_residuos_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user       *repository.UserRepository
	admin      *repository.AdminRepository
	refresh    *repository.RefreshTokenRepository
	module     *repository.ModuleRepository
	progress   *repository.ProgressRepository
	question   *repository.QuestionRepository
	exam       *repository.ExamRepository
	cert       *repository.CertificateRepository
	examConfig *repository.ExamConfigRepository
}

type services struct {
	storage    *service.StorageService
	email      *service.EmailService
	pdf        *service.PDFService
	examConfig *service.ExamConfigService
	auth       *service.AuthService
	module     *service.ModuleService
	exam       *service.ExamService
	cert       *service.CertificateService
	admin      *service.AdminService
}

type controllers struct {
	auth   *controller.AuthController
	module *controller.ModuleController
	exam   *controller.ExamController
	cert   *controller.CertificateController
	admin  *controller.AdminController
	health *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		admin:      repository.NewAdminRepository(db),
		refresh:    repository.NewRefreshTokenRepository(db),
		module:     repository.NewModuleRepository(db),
		progress:   repository.NewProgressRepository(db),
		question:   repository.NewQuestionRepository(db),
		exam:       repository.NewExamRepository(db),
		cert:       repository.NewCertificateRepository(db),
		examConfig: repository.NewExamConfigRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage
	s.email = service.NewEmailService(cfg)
	s.pdf = service.NewPDFService(cfg)
	s.examConfig = service.NewExamConfigService(repos.examConfig, rdb)
	s.auth = service.NewAuthService(repos.user, repos.admin, repos.refresh, s.email, cfg)
	s.module = service.NewModuleService(repos.module, repos.progress)
	s.exam = service.NewExamService(repos.exam, repos.question, s.module, s.examConfig)
	s.cert = service.NewCertificateService(repos.cert, repos.exam, repos.user, s.pdf, s.storage, s.email)
	s.admin = service.NewAdminService(repos.user, repos.module, repos.progress, repos.question,
		repos.exam, repos.cert, repos.refresh, s.examConfig, s.storage)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:   controller.NewAuthController(s.auth),
		module: controller.NewModuleController(s.module),
		exam:   controller.NewExamController(s.exam),
		cert:   controller.NewCertificateController(s.cert, a.Config),
		admin:  controller.NewAdminController(s.admin, s.auth, s.cert),
		health: controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 300
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks purga periódicamente los refresh tokens caducados.
func (a *App) startBackgroundTasks(repos *repositories) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		for range ticker.C {
			if err := repos.refresh.DeleteExpired(); err != nil {
				logger.Log.Error("error purgando refresh tokens caducados", zap.Error(err))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg.Server.Mode)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis solo respalda la caché de configuración; sin él se degrada
		// a lecturas directas de base de datos
		logger.Log.Warn("Redis no disponible, caché desactivada", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("formacion-residuos", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(repos)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
