package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"benefit-estimator/internal/config"
	"benefit-estimator/internal/handler"
	"benefit-estimator/internal/logging"
	"benefit-estimator/internal/session"
	"benefit-estimator/internal/trendregistry"
	"benefit-estimator/internal/userstate"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconciliation and user state API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, configFile)
		},
	}

	root := &cobra.Command{
		Use:   "benefit-estimator",
		Short: "Retirement benefit estimator backend",
		Long: `benefit-estimator keeps a user's retirement inputs per session and derives
the full retirement age and the reconciled earnings record from them.

Run without a subcommand to start the HTTP server.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("port", "", "HTTP listen port (env PORT)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	root.PersistentFlags().String("store-backend", "", "session store: memory or badger (env STORE_BACKEND)")
	root.PersistentFlags().String("badger-path", "", "badger data directory (env BADGER_PATH)")
	root.PersistentFlags().Duration("session-ttl", 0, "idle session lifetime (env SESSION_TTL)")
	root.PersistentFlags().String("trend-registry-url", "", "wage trend registry base URL (env TREND_REGISTRY_URL)")
	bindFlags(v, root)

	root.AddCommand(serve, newReconcileCmd())
	return root
}

// bindFlags binds flags to settings. Flags only override when set.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for key, flag := range map[string]string{
		config.KeyPort:             "port",
		config.KeyLogLevel:         "log-level",
		config.KeyStoreBackend:     "store-backend",
		config.KeyBadgerPath:       "badger-path",
		config.KeySessionTTL:       "session-ttl",
		config.KeyTrendRegistryURL: "trend-registry-url",
	} {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("Failed to bind %s flag: %v", flag, err))
		}
	}
}

func runServe(ctx context.Context, v *viper.Viper, configFile string) error {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	states := userstate.New(store,
		userstate.WithLogger(logger.Named("userstate")),
		userstate.WithGrowthRater(trendregistry.New(cfg.TrendRegistryURL, logger.Named("trends"))))
	api := handler.New(states, logger.Named("http"))

	server := &fasthttp.Server{
		Handler:      api.Handle,
		Name:         "benefit-estimator",
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
		TCPKeepalive: true,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("benefit estimator starting",
			zap.String("addr", cfg.Addr()), zap.String("store", cfg.StoreBackend))
		errCh <- server.ListenAndServe(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	api.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(cfg config.Config, logger *zap.Logger) (session.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendBadger:
		bc := session.DefaultBadgerConfig(cfg.BadgerPath)
		bc.TTL = cfg.SessionTTL
		bc.Logger = logger
		return session.OpenBadger(bc)
	default:
		return session.NewMemoryStore(cfg.SessionTTL, time.Minute), nil
	}
}
