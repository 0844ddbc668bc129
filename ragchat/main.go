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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ragchat/ragchat/bootstrap"
	"ragchat/ragchat/config"
	"ragchat/ragchat/controllers"
	"ragchat/ragchat/middlewares"
	"ragchat/ragchat/routes"
	"ragchat/ragchat/utils/logging"
)

func main() {
	// Loggers need LogDir, so config failures go to stderr.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err = bootstrap.ResolveSecrets(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("secret resolution error", zap.Error(err))
		os.Exit(1)
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("startup error", zap.Error(err))
		os.Exit(1)
	}
	defer app.Close()

	api := routes.API{
		Chat:     controllers.NewChatController(app.Sessions, app.Docs, app.Completer, cfg.LLMModel),
		Docs:     controllers.NewDocumentController(app.Sessions, app.Docs),
		Sessions: controllers.NewSessionController(app.Sessions),
		Limiter:  middlewares.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Mount("/health", routes.HealthRoutes(controllers.NewHealthController(app.Docs.Backend())))
	r.Mount("/api", routes.APIRoutes(api, cfg))
	r.Mount("/", routes.WebRoutes())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
		return
	}
	logging.AppLogger.Info("server shutdown complete")
}
