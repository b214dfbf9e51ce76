package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/teacherlink-search/internal/server"
	"github.com/spigell/teacherlink-search/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the candidate listing over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Duration("refresh-interval", 0, "reload the candidate pool periodically (0 disables)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.refresh-interval", serveCmd.Flags().Lookup("refresh-interval"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the teacherlink-search server", zap.String("version", buildVersion()))

	client, err := newClient(config, logger)
	if err != nil {
		logger.Fatal("creating teacherlink client", zap.Error(err))
	}

	engine, err := newEngine(config, logger)
	if err != nil {
		logger.Fatal("creating filter engine", zap.Error(err))
	}

	filterStore, err := newStore(config, logger)
	if err != nil {
		logger.Fatal("creating filter store", zap.Error(err))
	}
	defer store.Close(filterStore)

	defaults, err := config.defaultCriteria()
	if err != nil {
		logger.Fatal("reading default filters", zap.Error(err))
	}

	serverConfig := config.Server
	if serverConfig == nil {
		serverConfig = &server.Config{}
	}
	if serverConfig.PerPage == 0 {
		serverConfig.PerPage = config.PerPage
	}

	srv := server.New(serverConfig, &server.Deps{
		Engine:  engine,
		Store:   filterStore,
		Loader:  client,
		Version: buildVersion(),
	}, logger)
	srv.SetDefaultCriteria(defaults)

	if err := srv.Refresh(ctx); err != nil {
		logger.Warn("initial candidate pool load failed, serving an empty pool", zap.Error(err))
	}

	watchDefaults(srv, logger)

	if interval := viper.GetDuration("server.refresh-interval"); interval > 0 {
		go refreshLoop(ctx, srv, interval, logger)
	}

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("http server failed", zap.Error(err))
	}
}

// watchDefaults reapplies filters.default whenever the config file changes.
func watchDefaults(srv *server.Server, logger *zap.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		config, err := getConfig()
		if err != nil {
			logger.Warn("ignoring changed config", zap.String("file", e.Name), zap.Error(err))
			return
		}
		defaults, err := config.defaultCriteria()
		if err != nil {
			logger.Warn("ignoring changed default filters", zap.String("file", e.Name), zap.Error(err))
			return
		}
		srv.SetDefaultCriteria(defaults)
		logger.Info("default filters reloaded", zap.String("file", e.Name), zap.Strings("filters", defaults.ActiveKeys()))
	})
	viper.WatchConfig()
}

func refreshLoop(ctx context.Context, srv *server.Server, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := srv.Refresh(ctx); err != nil {
				logger.Warn("refreshing candidate pool", zap.Error(err))
			}
		}
	}
}
