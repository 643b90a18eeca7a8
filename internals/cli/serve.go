package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"churchhub_backend/internals/configs"
	database "churchhub_backend/internals/databases"
	"churchhub_backend/internals/features/donations/gateway"
	routes "churchhub_backend/internals/route"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Run AutoMigrate before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := configs.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	_, flush := configs.InitLogger(cfg.App.Env)
	defer flush()

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if serveMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	gw, err := gateway.New(cfg.Payment)
	if err != nil {
		return err
	}

	app := routes.NewApp(cfg, db, gw, routes.DefaultLimiters())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := net.JoinHostPort("0.0.0.0", cfg.App.Port)
		zap.L().Info("✅ Listening", zap.String("addr", addr), zap.String("provider", gw.Provider()))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
