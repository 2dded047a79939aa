package router

import (
	"reconcile-web/internal/config"
	"reconcile-web/internal/handler"
	"reconcile-web/internal/middleware"
	"reconcile-web/internal/parser"
	"reconcile-web/internal/repository"
	"reconcile-web/internal/service"
	"reconcile-web/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redis *redis.Client,
	cfg *config.Config,
) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	uploadRepo := repository.NewUploadRepository(db)
	lineRepo := repository.NewLineRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	bankAccountRepo := repository.NewBankAccountRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg)
	parserRegistry := parser.DefaultRegistry()
	lifecycleService := service.NewLifecycleService(
		uploadRepo,
		lineRepo,
		categoryRepo,
		bankAccountRepo,
		parserRegistry,
		service.NewRuleCategorizer(categoryRepo),
		cfg,
		utils.GetLogger(),
	)
	reviewService := service.NewReviewService(uploadRepo, lineRepo, categoryRepo, utils.GetLogger())
	overlapGuard := service.NewOverlapGuard(uploadRepo)
	exportService := service.NewExportService()

	// Initialize Asynq client (optional - only if Redis is available)
	var asynqClient *asynq.Client
	if redis != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	masterHandler := handler.NewMasterHandler(categoryRepo, bankAccountRepo)
	statementHandler := handler.NewStatementHandler(
		uploadRepo,
		lineRepo,
		lifecycleService,
		reviewService,
		overlapGuard,
		exportService,
		parserRegistry,
		asynqClient,
		redis,
		cfg,
	)

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	// Auth routes
	protected.Get("/auth/me", authHandler.Me)

	// Master data routes
	protected.Get("/categories", masterHandler.GetCategories)
	protected.Get("/gl-accounts", masterHandler.GetGLAccounts)
	protected.Get("/bank-accounts", masterHandler.GetBankAccounts)

	// Statement routes
	statements := protected.Group("/statements")
	statements.Post("/", statementHandler.UploadStatement)
	statements.Get("/", statementHandler.GetUploads)
	statements.Get("/overlap", statementHandler.CheckOverlap)
	statements.Get("/formats", statementHandler.GetSupportedFormats)
	statements.Get("/:id", statementHandler.GetUploadDetail)
	statements.Get("/:id/errors", statementHandler.GetErrorLines)
	statements.Get("/:id/export", statementHandler.ExportUpload)
	statements.Get("/:id/progress", statementHandler.GetUploadProgress)
	statements.Post("/:id/import", statementHandler.StartImport)
	statements.Post("/:id/cancel", statementHandler.CancelUpload)
	statements.Delete("/:id", statementHandler.DeleteUpload)

	// Line review routes
	protected.Put("/lines/:id", statementHandler.UpdateLine)
	protected.Post("/lines/bulk", statementHandler.BulkUpdateLines)
}
