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

	"github.com/spf13/cobra"

	"blogapi/internal/api"
	"blogapi/internal/config"
	"blogapi/pkg/factory"
	"blogapi/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "blogapi",
		Short:         "API HTTP de utilizadores e posts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	config.RegisterFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), nil).WithFields(map[string]interface{}{
		"service": cfg.ServiceName,
	})

	appFactory, err := factory.NewFactory(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("aplicação não pôde ser montada: %w", err)
	}

	log.Info("Aplicação a iniciar", map[string]interface{}{
		"env":            cfg.AppEnv,
		"post_id_policy": cfg.Posts.IDPolicy,
		"audit_driver":   cfg.Audit.Driver,
		"cache":          cfg.Redis.Enabled(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(appFactory),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Servidor HTTP a escutar", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Servidor a encerrar...", map[string]interface{}{})
	case err := <-serverErr:
		if err != nil {
			appFactory.Close(context.Background())
			return fmt.Errorf("servidor HTTP falhou: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Servidor não encerrou a tempo", map[string]interface{}{"error": err.Error()})
	}

	if err := appFactory.Close(shutdownCtx); err != nil {
		log.Error("Recursos não libertados", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Servidor encerrado", map[string]interface{}{})
	return nil
}
