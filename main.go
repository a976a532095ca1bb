package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pikecape/duck-service/internal/config"
	"github.com/pikecape/duck-service/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Fatalf("duckd: %v", err)
	}
}

// newRootCmd builds the duckd command tree. Flags are bound to the same
// viper keys as the environment so either can configure the service.
func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	v.SetDefault("LOG_LEVEL", "info")
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "duckd",
		Short:         "Duck CRUD service backed by MongoDB",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.LoadFrom(v); err != nil {
				return err
			}
			logger.Init(v.GetString("LOG_LEVEL"))
			if v.GetBool("LOG_CONSOLE") {
				logger.UseConsole()
			}
			logger.Debugf("startup: LOG_LEVEL=%s store=%s", logger.LevelString(), cfg.Store)
			return nil
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	snap := &cobra.Command{
		Use:   "snapshot",
		Short: "Export every duck to object storage and print the object key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.String("store", config.StoreMongo, "duck store backend (mongo|memory)")
	pf.String("mongo-uri", "", "MongoDB connection string")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.Bool("log-console", false, "human readable log output")
	sf := serve.Flags()
	sf.String("port", "", "listen port")
	sf.String("base-path", "", "mount point of the duck routes")
	root.Flags().AddFlagSet(sf)

	for key, flag := range map[string]string{
		"DUCK_STORE":       "store",
		"MONGODB_URI":      "mongo-uri",
		"LOG_LEVEL":        "log-level",
		"LOG_CONSOLE":      "log-console",
		"SERVER_PORT":      "port",
		"SERVER_BASE_PATH": "base-path",
	} {
		f := pf.Lookup(flag)
		if f == nil {
			f = sf.Lookup(flag)
		}
		if err := v.BindPFlag(key, f); err != nil {
			panic(err)
		}
	}

	root.AddCommand(serve, snap)
	root.RunE = serve.RunE
	return root
}

// runServe starts the HTTP server and blocks until SIGINT/SIGTERM or a listen failure.
func runServe(ctx context.Context, cfg *config.Config) error {
	d, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	registerMetrics()
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(cfg, d),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("duck service listening on %s (store=%s, base path %s)", srv.Addr, cfg.Store, cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runSnapshot performs a single export and writes the result to out.
func runSnapshot(ctx context.Context, cfg *config.Config, out io.Writer) error {
	if !cfg.MinIO.Enabled() {
		return errors.New("snapshot export requires MINIO_ENDPOINT")
	}
	d, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	if d.exporter == nil {
		return fmt.Errorf("object storage unavailable: %w", d.blobErr)
	}
	snap, err := d.exporter.Export(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, snap.String())
	return err
}
