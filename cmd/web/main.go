package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/bootstrap"
	"github.com/ust-lookup/internal/config"
	"github.com/ust-lookup/internal/logging"
	"github.com/ust-lookup/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		// Printed directly: the global logger may not be set up yet.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return eris.Wrap(err, "web: load settings")
	}
	flush, err := logging.Setup(settings.LogLevel, settings.LogFormat)
	if err != nil {
		return eris.Wrap(err, "web: setup logging")
	}
	defer flush()

	webConfig, err := serverConfig(settings)
	if err != nil {
		return err
	}

	rt, err := bootstrap.Open(ctx, settings)
	if err != nil {
		return eris.Wrap(err, "web: load dataset")
	}
	defer rt.Close()

	server, err := web.NewServer(webConfig, web.Deps{
		Service: rt.Service,
		Reload:  rt.Reload,
		Metrics: rt.Metrics.Handler(),
	})
	if err != nil {
		return err
	}

	zap.L().Info("web: features",
		zap.Bool("reload", webConfig.Features.ReloadEnabled),
		zap.Bool("metrics", webConfig.Features.MetricsEnabled),
		zap.Bool("debug", webConfig.Features.DebugEnabled),
		zap.Bool("auth", webConfig.Auth.Enabled))

	return server.Start(ctx)
}

// serverConfig reads the optional JSON config file, then applies the
// environment overrides
func serverConfig(settings *config.Settings) (*web.Config, error) {
	webConfig := web.DefaultConfig()
	if path := os.Getenv("USTLOOKUP_WEB_CONFIG"); path != "" {
		c, err := web.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		webConfig = c
	}
	webConfig.Server.Port = config.GetEnvInt("USTLOOKUP_WEB_PORT", webConfig.Server.Port)
	webConfig.Server.Host = config.GetEnv("USTLOOKUP_WEB_HOST", webConfig.Server.Host)
	if key := os.Getenv("USTLOOKUP_API_KEY"); key != "" {
		webConfig.Auth.Enabled = true
		webConfig.Auth.APIKey = key
	}
	webConfig.Features.ReloadEnabled = config.GetEnvBool("USTLOOKUP_ENABLE_RELOAD", webConfig.Features.ReloadEnabled)
	webConfig.Features.MetricsEnabled = config.GetEnvBool("USTLOOKUP_ENABLE_METRICS", webConfig.Features.MetricsEnabled)
	webConfig.Features.DebugEnabled = webConfig.Features.DebugEnabled || settings.Debug
	return webConfig, nil
}
