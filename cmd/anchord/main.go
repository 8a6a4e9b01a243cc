// Package main starts anchord, a local emulator of the hosted backend the
// Anchor client talks to: the four tables behind a REST interface, scoped
// per user, over PostgreSQL.
package main

import (
	"cmp"
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/config"
	"github.com/anchor-labs/anchor/internal/db"
	"github.com/anchor-labs/anchor/internal/logger"
	"github.com/anchor-labs/anchor/internal/repository"
	"github.com/anchor-labs/anchor/internal/server/handler/http"
	"github.com/anchor-labs/anchor/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	cfg, err := config.Load("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	if err := log.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	postgresDB, err := db.InitPostgres(cfg.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Purge soft-deleted items once their undo window is long gone.
	db.StartSoftDeleteCleaner(ctx, postgresDB,
		time.Hour,      // interval
		24*time.Hour,   // retention
		zapLogger,
	)

	itemRepo := repository.NewPostgresItemRepository(postgresDB)
	labelRepo := repository.NewPostgresLabelRepository(postgresDB)
	groupRepo := repository.NewPostgresGroupRepository(postgresDB)

	itemService := service.NewItemService(itemRepo, labelRepo)
	groupService := service.NewGroupService(groupRepo)

	itemHandler := &http.ItemHandler{Items: itemService}
	groupHandler := &http.GroupHandler{Groups: groupService}

	router := http.NewRouter(itemHandler, groupHandler, zapLogger)

	srv := &nethttp.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("anchord listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown failed", zap.Error(err))
	}
}
