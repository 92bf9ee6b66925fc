package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mirror520/taskboard"
	"github.com/mirror520/taskboard/conf"
	"github.com/mirror520/taskboard/persistence"
	"github.com/mirror520/taskboard/persistence/db"
	"github.com/mirror520/taskboard/persistence/kv"
	"github.com/mirror520/taskboard/policy"
	"github.com/mirror520/taskboard/pubsub"
	"github.com/mirror520/taskboard/pubsub/nats"
	"github.com/mirror520/taskboard/registry"

	httpTransport "github.com/mirror520/taskboard/transport/http"
)

func main() {
	app := &cli.App{
		Name:  "taskboard",
		Usage: "workspace task tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Usage:   "work directory holding config.yaml",
				EnvVars: []string{"TASKBOARD_PATH"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "http port",
				Value:   8080,
				EnvVars: []string{"TASKBOARD_HTTP_PORT"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().Fatal(err.Error())
	}
}

func newLogger(cfg conf.Log) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if cfg.Development {
		config = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}

		config.Level = zap.NewAtomicLevelAt(level)
	}

	return config.Build()
}

func run(cli *cli.Context) error {
	if err := conf.LoadEnv(cli); err != nil {
		return err
	}

	cfg, err := conf.LoadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(cli.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	persistence.AddFactory(conf.SQLite, db.NewStore)
	persistence.AddFactory(conf.BadgerDB, kv.NewStore)
	persistence.AddFactory(conf.InMem, kv.NewStore)

	store, err := persistence.NewStore(cfg.Persistence)
	if err != nil {
		return err
	}
	defer store.Close()

	log.Info("store opened",
		zap.String("driver", cfg.Persistence.Driver.String()),
		zap.String("name", cfg.Persistence.Name),
	)

	p, err := policy.NewRegoPolicy(ctx)
	if err != nil {
		return err
	}

	var publisher *pubsub.EventPublisher
	if cfg.EventBus.Enabled {
		pubsub.AddFactory(conf.NATS, nats.NewPubSub)

		ps, err := pubsub.NewPubSub(cfg.EventBus)
		if err != nil {
			return err
		}
		defer ps.Close()

		publisher = pubsub.NewEventPublisher(ps)
	}

	svc := taskboard.NewService(store, p, publisher, cfg.Engine)
	svc = taskboard.LoggingMiddleware(log)(svc)

	endpoints := taskboard.NewEndpointSet(svc)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	r := httpTransport.NewRouter(log)
	parser := httpTransport.NewTokenParser(cfg.JWT, cfg.BaseURL)
	httpTransport.SetRouter(r, endpoints, httpTransport.Authenticator(parser))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(conf.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Transports.HTTP.Enabled && cfg.Transports.HTTP.Consul.Enabled {
		registrar, err := registry.NewRegistrar(cfg.Name, cfg.Transports.HTTP)
		if err != nil {
			return err
		}

		if err := registrar.Register(); err != nil {
			return err
		}

		defer func() {
			if err := registrar.Deregister(); err != nil {
				log.Error(err.Error())
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")

	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
