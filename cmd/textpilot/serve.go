package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"textpilot/internal/server"
	"textpilot/internal/session"
)

// writeTimeoutMargin leaves room to encode the response after the last attempt
const writeTimeoutMargin = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the textpilot server",
	Long:  `Start the textpilot HTTP server: the form page, the action API and the settings API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		// 未配置时，写超时覆盖一次完整的重试周期
		writeTimeout := a.cfg.Server.WriteTimeout
		if writeTimeout <= 0 {
			if budget := a.client.Budget(); budget > 0 {
				writeTimeout = budget + writeTimeoutMargin
			}
		}

		opts := server.Options{
			Coordinator:  session.NewCoordinator(a.client, a.log),
			Store:        a.store,
			Logger:       a.log,
			WriteTimeout: writeTimeout,
		}
		if a.cfg.Metrics.Enabled {
			opts.MetricsHandler = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
			opts.MetricsPath = a.cfg.Metrics.Path
		}

		a.log.Info("Configuration loaded",
			zap.String("settings_backend", a.cfg.Settings.Backend),
			zap.Int("max_attempts", a.client.Policy().MaxAttempts),
			zap.Duration("write_timeout", writeTimeout),
			zap.Bool("metrics", a.cfg.Metrics.Enabled),
		)

		srv := server.NewHTTPServer(a.cfg.Server.Addr(), opts)
		return srv.Start()
	},
}

func SetupServeCmd() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Server port")
	serveCmd.Flags().StringP("host", "H", "127.0.0.1", "Server host")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}
