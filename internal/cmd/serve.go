package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/live"
	"github.com/zfogg/menuboard/internal/logger"
	"github.com/zfogg/menuboard/internal/metrics"
	"github.com/zfogg/menuboard/internal/telemetry"
	"github.com/zfogg/menuboard/internal/web"
	"github.com/zfogg/menuboard/pkg/menu"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the menu web front-end",
		Long: `Serve the menu list, the owner edit page and the live refresh socket.
Append ?owner=true to the page URL to see the owner controls.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr, :5174)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg

	if err := logger.Initialize(logger.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		JSONConsole: cfg.IsProduction(),
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := telemetry.InitTracer(ctx, telemetry.Config{
		Environment:  cfg.Server.Env,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background(), tp); err != nil {
			logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	opts := menu.Options{
		BaseURL:   cfg.API.BaseURL,
		Logger:    logger.Resty(),
		UserAgent: userAgent(),
		Observe:   metrics.ObserveUpstream,
	}
	if tp != nil {
		opts.Transport = telemetry.NewTransport(nil)
	}
	client := menu.New(opts)

	hub := live.NewHub()
	go hub.Run(ctx)

	var publisher live.Publisher = hub
	if cfg.Live.RedisURL != "" {
		bus, err := live.NewRedisBus(ctx, cfg.Live.RedisURL, hub)
		if err != nil {
			return err
		}
		defer bus.Close()
		go func() {
			if err := bus.Run(ctx); err != nil {
				logger.Log.Error("Live event bus stopped", zap.Error(err))
			}
		}()
		publisher = bus
	}

	srv, err := web.NewServer(web.Config{
		Addr:                cfg.Server.Addr,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		OwnerParam:          cfg.Owner.Param,
		TruncateAt:          cfg.View.TruncateAt,
		VisibilityThreshold: cfg.View.VisibilityThreshold,
		Footer:              cfg.Server.Footer,
		Tracing:             tp != nil,
	}, client, hub, publisher)
	if err != nil {
		return err
	}

	logger.Log.Info("Starting menu board",
		zap.String("addr", srv.Addr()),
		zap.String("api", client.BaseURL()),
		zap.String("env", cfg.Server.Env),
	)
	return srv.Run(ctx)
}
