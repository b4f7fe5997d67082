package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presensi_backend/internal/config"
	"presensi_backend/internal/controller"
	"presensi_backend/internal/repository"
	"presensi_backend/internal/service"
	"presensi_backend/pkg/database"
	"presensi_backend/pkg/logger"
	"presensi_backend/pkg/monitoring"
	"presensi_backend/pkg/security"
	"presensi_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB

	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	presensi *repository.PresensiRepository
}

type services struct {
	storage    *service.StorageService
	attachment *service.AttachmentService
	auth       *service.AuthService
	presensi   *service.PresensiService
	report     *service.ReportService
}

type controllers struct {
	auth     *controller.AuthController
	presensi *controller.PresensiController
	report   *controller.ReportController
	health   *controller.HealthController
}

// RegisterConfigCallback subscribes to hot config reloads.
func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig fans a reloaded config out to the subscribers.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

// reloadTunables refreshes the settings services read per request. The gorm
// pool, router and middleware chain are fixed for the process lifetime.
func reloadTunables(s *services, c *controllers) func(*config.Config) {
	return func(cfg *config.Config) {
		s.presensi.Loc = cfg.Presensi.Location
		s.presensi.TZLabel = cfg.Presensi.TimezoneLabel
		s.report.Loc = cfg.Presensi.Location
		s.attachment.MaxBytes = cfg.Presensi.MaxPhotoMB << 20
		c.report.Loc = cfg.Presensi.Location
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		presensi: repository.NewPresensiRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.attachment = service.NewAttachmentService(s.storage, cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.presensi = service.NewPresensiService(repos.presensi, repos.user, s.attachment, cfg)
	s.report = service.NewReportService(repos.presensi, cfg)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		presensi: controller.NewPresensiController(s.presensi),
		report:   controller.NewReportController(s.report),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(ginMode(cfg.Server.Mode))

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	app.RegisterConfigCallback(reloadTunables(services, controllers))

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("presensi-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
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
