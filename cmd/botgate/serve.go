package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/botgatehq/botgate/internal/channels"
	"github.com/botgatehq/botgate/internal/config"
	"github.com/botgatehq/botgate/internal/conversations"
	"github.com/botgatehq/botgate/internal/db"
	"github.com/botgatehq/botgate/internal/dispatch"
	"github.com/botgatehq/botgate/internal/handlers"
	"github.com/botgatehq/botgate/internal/logger"
	"github.com/botgatehq/botgate/internal/messages"
	"github.com/botgatehq/botgate/internal/platform"
	"github.com/botgatehq/botgate/internal/platform/adapters/discord"
	"github.com/botgatehq/botgate/internal/platform/adapters/telegram"
	"github.com/botgatehq/botgate/internal/server"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			providePlatformRegistry,
			provideChannelService,
			provideConversationResolver,
			provideIngestor,
			provideMessageService,
			provideDispatcher,
			provideServerHandler(providePingHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideChannelHandler),
			provideServerHandler(provideMessageHandler),
			provideServer,
		),
		fx.Invoke(
			runMigrations,
			startServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func providePlatformRegistry(log *slog.Logger) *platform.Registry {
	registry := platform.NewRegistry()
	registry.MustRegister(telegram.NewAdapter(log))
	registry.MustRegister(discord.NewAdapter(log))
	return registry
}

func provideChannelService(log *slog.Logger, conn *pgxpool.Pool) *channels.Service {
	return channels.NewService(log, channels.NewPgStore(conn))
}

func provideConversationResolver(log *slog.Logger, conn *pgxpool.Pool, channelService *channels.Service) *conversations.Resolver {
	return conversations.NewResolver(log, conversations.NewPgStore(conn), channelService)
}

func provideIngestor(log *slog.Logger, conn *pgxpool.Pool, resolver *conversations.Resolver) *messages.Ingestor {
	return messages.NewIngestor(log, resolver, messages.NewPgStore(conn))
}

func provideMessageService(log *slog.Logger, conn *pgxpool.Pool) *messages.Service {
	return messages.NewService(log, messages.NewPgStore(conn))
}

func provideDispatcher(log *slog.Logger, cfg config.Config, registry *platform.Registry, channelService *channels.Service, ingestor *messages.Ingestor) *dispatch.Dispatcher {
	timeout, err := time.ParseDuration(cfg.Dispatch.Timeout)
	if err != nil {
		log.Warn("invalid dispatch timeout, using default", slog.String("value", cfg.Dispatch.Timeout))
		timeout = 0
	}
	return dispatch.NewDispatcher(log, registry, channelService, ingestor, timeout)
}

func providePingHandler() *handlers.PingHandler {
	return handlers.NewPingHandler()
}

func provideWebhookHandler(log *slog.Logger, registry *platform.Registry, ingestor *messages.Ingestor) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, registry, ingestor)
}

func provideChannelHandler(channelService *channels.Service) *handlers.ChannelHandler {
	return handlers.NewChannelHandler(channelService)
}

func provideMessageHandler(dispatcher *dispatch.Dispatcher, messageService *messages.Service, resolver *conversations.Resolver) *handlers.MessageHandler {
	return handlers.NewMessageHandler(dispatcher, messageService, resolver)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers)
}

func runMigrations(log *slog.Logger, cfg config.Config) error {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return err
	}
	log.Info("migrations applied")
	return nil
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}
