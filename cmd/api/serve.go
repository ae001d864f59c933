package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	httpadp "pawn-settlement/internal/adapter/http"
	mw "pawn-settlement/internal/adapter/middleware"
	"pawn-settlement/internal/infrastructure/cache"
	"pawn-settlement/internal/infrastructure/db"
)

func serveCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, log)
		},
	}
}

func serve(ctx context.Context, log *slog.Logger) error {
	a, err := newApp(ctx, log)
	if err != nil {
		return err
	}
	defer a.close()

	rdb, err := cache.OpenRedis(a.cfg.RedisAddr, a.cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Ping: db.Healthy(a.db)},
			httpadp.Check{Name: "redis", Ping: cache.Healthy(rdb)},
		),
		Penalties:   httpadp.NewPenaltyHandler(a.penalties, log, a.cfg.SupportPhone),
		Redemptions: httpadp.NewRedemptionHandler(a.redemptions, log),
		Actions:     httpadp.NewActionHandler(a.actions, log, a.cfg.SupportPhone),
		Investors:   httpadp.NewInvestorHandler(a.investors, log),
	}, mw.IdempotencyMiddleware(rdb, a.cfg.IdempotencyTTL(), log))

	addr := ":" + a.cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
