// Command server runs the messenger backend: the REST API, the realtime
// WebSocket channel and the admin surface, backed by a SQLite document store.
//
//	@title			Messenger API
//	@version		1.0
//	@description	Chats, message history and administration for the realtime messenger.
//	@BasePath		/api
//	@securityDefinitions.apikey	BearerAuth
//	@in				header
//	@name			Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-messenger-backend/docs"
	"github.com/tbourn/go-messenger-backend/internal/config"
	"github.com/tbourn/go-messenger-backend/internal/guard"
	httpapi "github.com/tbourn/go-messenger-backend/internal/http"
	"github.com/tbourn/go-messenger-backend/internal/observability"
	"github.com/tbourn/go-messenger-backend/internal/realtime"
	"github.com/tbourn/go-messenger-backend/internal/repo"
	"github.com/tbourn/go-messenger-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	logger := sysutil.InitLogger(os.Stdout, sysutil.LogOptions{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		NoColor: sysutil.IsTruthy(os.Getenv("NO_COLOR")),
		Service: cfg.OTEL.ServiceName,
		Version: sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version),
	})
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.OpenSQLite(cfg.DBPath, repo.Options{Tracing: cfg.OTEL.Enabled, Silent: true})
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	store := repo.NewStore(db)
	if err := repo.SeedAdmins(ctx, store, cfg.AdminSeedIPs); err != nil {
		logger.Fatal().Err(err).Msg("seed admins")
	}
	if n, err := repo.ResetPresence(ctx, store, time.Now()); err != nil {
		logger.Fatal().Err(err).Msg("reset presence")
	} else if n > 0 {
		logger.Warn().Int64("users", n).Msg("cleared presence left by an unclean stop")
	}

	sink := guard.NewLogSink(logger.With().Str("component", "guard").Logger(), 1024)
	g := guard.New(guard.Config{
		Window:        time.Minute,
		PerSecond:     cfg.Guard.PerSecond,
		PerMinute:     cfg.Guard.PerMinute,
		BlockDuration: cfg.Guard.BlockDuration,
		EscalateAfter: cfg.Guard.EscalateAfter,
		SweepInterval: cfg.Guard.SweepInterval,
	}, guard.WithSink(sink))
	go g.Run(ctx)

	engine := realtime.NewEngine(store, realtime.NewRegistry(), realtime.Options{
		MaxContentRunes: cfg.Realtime.MaxContentRunes,
		Logger:          logger.With().Str("component", "realtime").Logger(),
	})

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Store:  store,
		Guard:  g,
		Engine: engine,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("api", cfg.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// http.Server does not track hijacked WebSocket connections.
	if err := engine.Drain(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("realtime drain")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	sink.Close()
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("stopped")
}
