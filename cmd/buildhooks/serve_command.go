package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"buildhooks/internal/api"
	"buildhooks/internal/logging"
	"buildhooks/internal/notifications"
	"buildhooks/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin and build trigger API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), ctx, bind)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides api.bind)")
	return cmd
}

func runServer(cmdCtx context.Context, ctx *commandContext, bindOverride string) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another buildhooks server is already running (lock %s)", cfg.LockPath())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release server lock", logging.Error(err))
		}
	}()

	for _, result := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run buildhooks config validate"))
	}

	store, err := ctx.openStore(logger)
	if err != nil {
		return err
	}
	service := notifications.NewFromConfig(cfg, store, logger)

	bind := cfg.API.Bind
	if bindOverride != "" {
		bind = bindOverride
	}
	server := api.New(api.Options{Bind: bind, Token: cfg.API.Token}, store, service, logger)
	if err := server.Start(signalCtx); err != nil {
		return err
	}
	logger.Info("buildhooks server started",
		logging.String("lock", cfg.LockPath()),
		logging.String("settings_file", cfg.Paths.SettingsFile),
		logging.Bool("auth_enabled", cfg.API.Token != ""))

	<-signalCtx.Done()
	server.Stop()
	logger.Info("buildhooks server shutting down")
	return nil
}
