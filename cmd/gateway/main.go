package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/answerkey"
	api "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/api/http"
	auth "github.com/ThousandsOfTies/home-teacher-core-sub001/internal/auth/middleware"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/config"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/db"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/history"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/logging"
)

func main() {
	if err := serve(); err != nil {
		os.Exit(1)
	}
}

// serve owns every deferred cleanup, so the logger is flushed before main
// decides the exit code.
func serve() error {
	cfgPath := flag.String("config", "", "optional config file (yaml/json)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Printf("config: %v", err)
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Printf("logger: %v", err)
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("gateway stopped", zap.Error(err))
		return err
	}
	return nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	// --- DB ---
	openCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	h := api.NewRouter(api.Deps{
		DB:                 dbh,
		Answers:            answerkey.NewSQLStore(dbh),
		History:            history.NewSQLRepo(dbh),
		Resolver:           grading.NewResolver(grading.WithLogger(logger.Named("grading"))),
		Auth:               auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL),
		Admin:              auth.Admin{User: cfg.AdminUser, PassHash: cfg.AdminPassHash},
		Log:                logger.Named("http"),
		EnableLocalAuth:    cfg.EnableLocalAuth,
		AllowClaimFallback: cfg.Mode == config.ModeOffline,
		CORSOrigins:        cfg.CORSOrigins(),
		RequestTimeout:     cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("mode", string(cfg.Mode)),
			zap.String("db", cfg.DBDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
