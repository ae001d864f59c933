package main

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func sweepCmd(log *slog.Logger) *cobra.Command {
	var every time.Duration
	cmd := &cobra.Command{
		Use:   "sweep-penalties",
		Short: "Create today's penalty for every overdue contract",
		Long: `Runs the overdue sweep once, or every --every interval until interrupted.
Safe to run repeatedly: a contract gets at most one penalty per day.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, log)
			if err != nil {
				return err
			}
			defer a.close()

			run := func() error {
				_, err := a.penalties.SweepOverdue(ctx)
				return err
			}
			if every <= 0 {
				return run()
			}
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				if err := run(); err != nil {
					log.Error("penalty sweep failed", slog.Any("err", err))
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "repeat the sweep at this interval (0 runs once)")
	return cmd
}
