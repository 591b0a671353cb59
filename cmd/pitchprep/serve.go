package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/pitchprep/internal/scheduler"
	"github.com/jonathan/pitchprep/internal/server"
	"github.com/jonathan/pitchprep/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  "Start an HTTP server exposing pitch generation, saved pitches and employer research. Requests are authenticated with HS256 bearer tokens.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().Bool("refresh", false, "Run the scheduled employer context refresher")
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("scheduler.enabled", serveCmd.Flags().Lookup("refresh"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.RequireServe(); err != nil {
		return err
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	svc, err := a.services(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Scheduler.Enabled {
		refresher := scheduler.New(svc.db, svc.researcher, a.cfg.Scheduler.RefreshInterval, a.cfg.Scheduler.Concurrency, a.log)
		if err := refresher.Start(ctx); err != nil {
			return err
		}
		defer refresher.Stop()
	}

	srv := server.New(svc.pipeline, svc.researcher, server.Options{
		Port:                a.cfg.Server.Port,
		ShutdownTimeout:     a.cfg.Server.ShutdownTimeout,
		Tokens:              server.NewJWTService(a.cfg.JWT).AsTokenValidator(),
		RateLimit:           ratelimit.FromSettings(a.cfg.RateLimit),
		ResearchConcurrency: a.cfg.Scheduler.Concurrency,
		Health:              svc.db,
		Logger:              a.log,
	})
	return srv.Run(ctx)
}

// commandContext returns a context cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}
