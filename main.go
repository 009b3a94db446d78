package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard/internal/apiclient"
	intconfig "dashboard/internal/config"
	router "dashboard/internal/http"
	"dashboard/internal/notify"
	"dashboard/internal/repositories"
	"dashboard/internal/services"
	"dashboard/internal/session"
	"dashboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	logger, err := utils.InitLogger(env.LogLevel, env.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	storage, err := repositories.OpenStorage(context.Background(), env)
	if err != nil {
		logger.Fatal("open session storage", zap.Error(err), zap.String("driver", env.StorageDriver))
	}
	defer intconfig.CloseDB()
	if env.StorageDriver == intconfig.DriverMemory {
		logger.Warn("session storage is in memory, sessions end with the process")
	}

	store := session.NewStore(storage)
	restored, err := store.Initialize()
	if err != nil {
		logger.Fatal("restore session", zap.Error(err))
	}
	if restored {
		snap := store.Snapshot()
		logger.Info("session restored", zap.Int64("user_id", snap.User.ID), zap.Bool("restaurant_selected", snap.SelectedRestaurant != nil))
	} else {
		logger.Info("no stored session, operators must log in", zap.String("redirect", "/login"))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	client := apiclient.NewClient(env.APIBaseURL, env.APITimeout, apiclient.NewMetrics(reg))

	dashboard := services.NewDashboard(store, client, notify.NewBoard(0))
	r := router.NewRouter(env, dashboard, reg)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("dashboard listening", zap.String("addr", env.AppAddr), zap.String("api", env.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}
