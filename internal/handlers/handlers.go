package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"catatuang/api/internal/config"
	"catatuang/api/internal/lockout"
	"catatuang/api/internal/middleware"
	"catatuang/api/internal/repository"
	"catatuang/api/internal/roles"
	"catatuang/api/internal/service"
	"catatuang/api/internal/session"
	"catatuang/api/internal/storage"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	accountService *service.AccountService
	txService      *service.TransactionService
	exportService  *service.ExportService
	db             *pgxpool.Pool
	cache          *redis.Client
	accounts       *repository.AccountRepository
	sessions       *repository.SessionRepository
	manager        *session.Manager
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, archive *storage.ArchiveStore, cfg *config.AppConfig) HandlerSet {
	accountRepo := repository.NewAccountRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	txRepo := repository.NewTransactionRepository(db)

	manager := session.NewManager(cfg.Security.SessionTimeout, sessionRepo, log)
	tracker := lockout.NewTracker(cfg.Security, cache, log)

	auth := service.NewAuthService(accountRepo, manager, tracker, cache, cfg, log)
	accounts := service.NewAccountService(accountRepo, manager, log)
	transactions := service.NewTransactionService(txRepo, accountRepo, log)
	export := service.NewExportService(txRepo, archive, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    auth,
		accountService: accounts,
		txService:      transactions,
		exportService:  export,
		db:             db,
		cache:          cache,
		accounts:       accountRepo,
		sessions:       sessionRepo,
		manager:        manager,
	}
}

// SessionManager exposes the manager so main can stop its timers at
// shutdown.
func (h HandlerSet) SessionManager() *session.Manager { return h.manager }

// Sessions exposes the session repository for the scheduler's sweep.
func (h HandlerSet) Sessions() *repository.SessionRepository { return h.sessions }

// Exporter exposes the export service for the scheduled archive job.
func (h HandlerSet) Exporter() *service.ExportService { return h.exportService }

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/forgot", h.ForgotPassword)
		auth.POST("/reset", h.ResetPassword)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.accounts, h.sessions, h.manager))
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.PUT("/profile", middleware.RequireCapability(roles.CapUpdateProfile), h.UpdateProfile)
	}

	transactions := v1.Group("/transactions")
	transactions.Use(middleware.Auth(h.cfg, h.accounts, h.sessions, h.manager))
	transactions.GET("", middleware.RequireCapability(roles.CapViewTransactions), h.ListTransactions)
	transactions.POST("", middleware.RequireCapability(roles.CapSubmitTransactions), h.AddTransaction)
	transactions.DELETE("/:id", middleware.RequireCapability(roles.CapSubmitTransactions), h.DeleteTransaction)
	transactions.GET("/summary", middleware.RequireCapability(roles.CapViewSummary), h.TransactionSummary)

	admin := v1.Group("/admin")
	admin.Use(middleware.Auth(h.cfg, h.accounts, h.sessions, h.manager))
	admin.GET("/users", middleware.RequireCapability(roles.CapManageUsers), h.AdminListUsers)
	admin.POST("/users/:id/approve", middleware.RequireCapability(roles.CapManageUsers), h.AdminApproveUser)
	admin.POST("/users/:id/reject", middleware.RequireCapability(roles.CapManageUsers), h.AdminRejectUser)
	admin.POST("/users/:id/toggle", middleware.RequireCapability(roles.CapManageUsers), h.AdminToggleUser)
	admin.POST("/users/:id/role", middleware.RequireCapability(roles.CapManageUsers), h.AdminChangeRole)
	admin.GET("/stats", middleware.RequireCapability(roles.CapViewReports), h.AdminStats)
	admin.POST("/export", middleware.RequireCapability(roles.CapExportData), h.AdminExport)
}
