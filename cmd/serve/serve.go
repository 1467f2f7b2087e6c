// Package serve implements the serve command that runs the HTTP API.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/callguard/internal/analysis"
	"github.com/tphakala/callguard/internal/analysis/jobqueue"
	"github.com/tphakala/callguard/internal/api"
	"github.com/tphakala/callguard/internal/buildinfo"
	"github.com/tphakala/callguard/internal/conf"
	"github.com/tphakala/callguard/internal/datastore"
	"github.com/tphakala/callguard/internal/errors"
	"github.com/tphakala/callguard/internal/featurecache"
	"github.com/tphakala/callguard/internal/logger"
	"github.com/tphakala/callguard/internal/mqtt"
	"github.com/tphakala/callguard/internal/observability"
)

// dispatchDrainTimeout bounds the wait for queued history and publish actions at shutdown
const dispatchDrainTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the voice detection HTTP API",
		Long:  "Start the HTTP server exposing /api/v1/voice-detection, /health and /metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, settings, info)
		},
	}
}

func run(ctx context.Context, settings *conf.Settings, info *buildinfo.Context) error {
	log := logger.Global().Module("serve")

	if err := conf.ValidateForServe(settings); err != nil {
		return err
	}

	go rotateLogsOnHangup(ctx, log)

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, info.GetVersion(), settings.Sentry.Environment); err != nil {
			log.Warn("sentry initialization failed, continuing without telemetry", logger.Error(err))
		} else {
			defer errors.FlushTelemetry(2 * time.Second)
		}
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	pipelineOpts := []analysis.Option{analysis.WithMetrics(metrics.Detection)}
	var cache *featurecache.Cache
	if settings.Cache.Enabled {
		cache = featurecache.New(featurecache.WithRecorder(metrics.Detection))
		pipelineOpts = append(pipelineOpts, analysis.WithCache(cache))
	}
	pipeline := analysis.NewFromSettings(settings, pipelineOpts...)

	var store datastore.Store = datastore.NoopStore{}
	var history datastore.Store
	if settings.Datastore.Enabled {
		sqlite, err := datastore.OpenSQLite(settings.Datastore.Path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() {
			if err := sqlite.Close(); err != nil {
				log.Warn("failed to close history database", logger.Error(err))
			}
		}()
		store, history = sqlite, sqlite
		log.Info("analysis history enabled", logger.String("path", settings.Datastore.Path))
	}

	publisher, err := connectPublisher(ctx, settings.MQTT, log)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}

	queue := jobqueue.NewJobQueue()
	queue.Start(ctx)
	dispatcher := analysis.NewDispatcher(queue, history, publisher, metrics.Detection)
	defer func() {
		if err := dispatcher.Close(dispatchDrainTimeout); err != nil {
			log.Warn("pending post-analysis actions abandoned", logger.Error(err))
		}
	}()

	serverOpts := []api.ServerOption{
		api.WithLogger(api.GetLogger()),
		api.WithPipeline(pipeline),
		api.WithStore(store),
		api.WithDispatcher(dispatcher),
		api.WithMetrics(metrics),
		api.WithVersion(info.GetVersion()),
	}
	if cache != nil {
		serverOpts = append(serverOpts, api.WithFeatureCache(cache))
	}

	server, err := api.New(settings, serverOpts...)
	if err != nil {
		return err
	}

	log.Info("starting callguard",
		logger.String("version", info.GetVersion()),
		logger.Bool("cache", settings.Cache.Enabled),
		logger.Bool("history", settings.Datastore.Enabled),
		logger.Bool("mqtt", publisher != nil))

	return server.Run(ctx)
}

// connectPublisher returns nil when MQTT is disabled. A broker that is down at
// startup is not fatal; each publish reconnects first.
func connectPublisher(ctx context.Context, cfg conf.MQTTConfig, log logger.Logger) (*mqtt.Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := mqtt.NewClient(mqtt.ConfigFromSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create MQTT client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		log.Warn("MQTT broker unreachable at startup, verdicts will be retried",
			logger.String("broker", cfg.Broker),
			logger.Error(err))
	}

	return mqtt.NewPublisher(client, cfg.Topic, cfg.PublishAll), nil
}

// rotateLogsOnHangup rotates the log file whenever the process receives SIGHUP.
func rotateLogsOnHangup(ctx context.Context, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := logger.Global().Rotate(); err != nil {
				log.Warn("log rotation failed", logger.Error(err))
				continue
			}
			log.Info("log file rotated")
		}
	}
}
