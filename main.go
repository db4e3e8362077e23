package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mateuscastro5/gym-api/internal/audit"
	"github.com/mateuscastro5/gym-api/internal/config"
	"github.com/mateuscastro5/gym-api/internal/database"
	"github.com/mateuscastro5/gym-api/internal/jobs"
	"github.com/mateuscastro5/gym-api/internal/logger"
	"github.com/mateuscastro5/gym-api/internal/ratelimit"
	"github.com/mateuscastro5/gym-api/internal/repository"
	"github.com/mateuscastro5/gym-api/internal/router"

	"github.com/google/gops/agent"
	"github.com/sirupsen/logrus"
)

const auditBuffer = 1024

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("init logger")
	}

	if cfg.Debug.GopsAddr != "" {
		if err := agent.Listen(agent.Options{Addr: cfg.Debug.GopsAddr, ShutdownCleanup: true}); err != nil {
			log.WithError(err).Fatal("start gops agent")
		}
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("init database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	created, err := database.SeedAdmin(db, cfg.Admin, cfg.Security.BcryptCost)
	if err != nil {
		log.WithError(err).Fatal("seed admin")
	}
	if created {
		log.WithField("email", cfg.Admin.Email).Info("admin account created")
	}

	// audit writes go through a buffered worker so requests never wait on them
	dbRecorder := audit.NewDBRecorder(repository.NewLogRepository(db), cfg.Security.EncryptionKey, log)
	dispatcher := audit.NewDispatcher(dbRecorder, auditBuffer, log)

	var limiter *ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		client := ratelimit.NewClient(cfg.Redis)
		defer client.Close()
		limiter = ratelimit.New(client, cfg.Redis.Limit, cfg.Redis.Window())
		log.WithField("addr", cfg.Redis.Addr).Info("rate limiting enabled")
	}

	scheduler, err := jobs.NewScheduler(cfg.Jobs.RecoveryCleanup,
		jobs.NewRecoveryCleaner(repository.NewAccountRepository(db), log))
	if err != nil {
		log.WithError(err).Fatal("schedule jobs")
	}
	scheduler.Start()

	r := router.SetupRouter(cfg, router.Deps{
		DB:      db,
		Log:     log,
		Audit:   dispatcher,
		Limiter: limiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("run server")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}

	<-scheduler.Stop().Done()
	dispatcher.Close()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped")
}
