package router

import (
	"net/http"

	"github.com/mateuscastro5/gym-api/internal/account"
	"github.com/mateuscastro5/gym-api/internal/audit"
	"github.com/mateuscastro5/gym-api/internal/config"
	"github.com/mateuscastro5/gym-api/internal/handler"
	"github.com/mateuscastro5/gym-api/internal/mailer"
	"github.com/mateuscastro5/gym-api/internal/metrics"
	"github.com/mateuscastro5/gym-api/internal/middleware"
	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/ratelimit"
	"github.com/mateuscastro5/gym-api/internal/repository"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the collaborators built outside the router. Zero values fall back
// to the synchronous database recorder, a sender chosen from config and no
// rate limiting.
type Deps struct {
	DB             *gorm.DB
	Log            logrus.FieldLogger
	Audit          audit.Recorder
	Sender         mailer.Sender
	Limiter        *ratelimit.Limiter
	AccountOptions []account.Option
}

// SetupRouter configures the Gin engine with every API route.
func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	accountRepo := repository.NewAccountRepository(deps.DB)
	logRepo := repository.NewLogRepository(deps.DB)

	rec := deps.Audit
	if rec == nil {
		rec = audit.NewDBRecorder(logRepo, cfg.Security.EncryptionKey, log)
	}
	sender := deps.Sender
	if sender == nil {
		sender = mailer.New(cfg.Mail, log)
	}

	tokens := util.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL())
	opts := append([]account.Option{
		account.WithLogger(log),
		account.WithBcryptCost(cfg.Security.BcryptCost),
		account.WithLockoutThreshold(cfg.Security.LockoutThreshold),
		account.WithRecoveryTTL(cfg.Security.RecoveryTTL()),
	}, deps.AccountOptions...)
	accounts := account.NewService(accountRepo, tokens, mailer.NewNotifier(sender, cfg.Mail.BaseURL), rec, opts...)

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(log),
		metrics.Middleware(),
		middleware.ClientContext(),
	)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := deps.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			util.Error(c, http.StatusServiceUnavailable, util.CodeServerErr, "database unavailable")
			return
		}
		util.Success(c, util.Response{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(accounts, log)
	userHandler := handler.NewUserHandler(accounts, log)
	logHandler := handler.NewLogHandler(logRepo, cfg.Security.EncryptionKey, log)

	loginLimit := middleware.RateLimit(deps.Limiter, "login", log)
	recoveryLimit := middleware.RateLimit(deps.Limiter, "recovery", log)

	// public
	users := api.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", loginLimit, authHandler.Login)
	users.POST("/activate", authHandler.Activate)
	users.POST("/activate/:code", authHandler.Activate)
	users.GET("/activate/:code", authHandler.Activate)
	users.POST("/recovery/request", recoveryLimit, authHandler.RequestRecovery)
	users.POST("/recovery/confirm", recoveryLimit, authHandler.ConfirmRecovery)
	users.POST("/reset-password", recoveryLimit, authHandler.ConfirmRecovery)

	// authenticated
	auth := middleware.AuthMiddleware(tokens, accounts, rec)
	protected := api.Group("", auth)
	protected.GET("/me", userHandler.GetMe)
	protected.POST("/users/change-password", authHandler.ChangePassword)

	// admin
	admin := api.Group("", auth, middleware.RequireLevel(models.LevelAdmin, rec))
	admin.GET("/users", userHandler.ListUsers)
	admin.POST("/users", userHandler.CreateUser)
	admin.DELETE("/users/:id", userHandler.DeleteUser)
	admin.GET("/logs", logHandler.ListLogs)
	admin.GET("/logs/export/csv", logHandler.ExportCSV)
	admin.GET("/logs/export/xlsx", logHandler.ExportXLSX)

	return r
}
