package main

import (
	"context"
	"errors"
	"net"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/user-platform/internal/platform/config"
	"github.com/example/user-platform/internal/platform/db"
	"github.com/example/user-platform/internal/platform/events"
	"github.com/example/user-platform/internal/platform/httpserver"
	"github.com/example/user-platform/internal/platform/logging"
	"github.com/example/user-platform/internal/platform/natsconn"
	"github.com/example/user-platform/internal/platform/run"
	"github.com/example/user-platform/services/users/internal/cache"
	userscfg "github.com/example/user-platform/services/users/internal/config"
	"github.com/example/user-platform/services/users/internal/grpcapi"
	"github.com/example/user-platform/services/users/internal/handlers"
	"github.com/example/user-platform/services/users/internal/store"
)

func main() {
	run.Exit(serve())
}

// serve runs the service and returns the exit code once every backend has
// been released.
func serve() int {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	svc, err := userscfg.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	log = log.With(zap.String("service", cfg.ServiceName))
	defer func() { _ = log.Sync() }()

	users, pinger, closeStore := initUsers(log, cfg, svc)
	defer closeStore()

	users, closeCache := initCache(log, svc, users)
	defer closeCache()

	users, closeEvents := initEvents(log, cfg, svc, users)
	defer closeEvents()

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		Logger: log,
		ReadyFunc: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pinger.Ping(ctx)
		},
	})
	r.Get("/health", handlers.Health)
	handlers.Register(r, users, log)

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr(), ServiceName: cfg.ServiceName, Logger: log, Router: r})
	components := []run.Component{{
		Name:  "http",
		Start: srv.Start,
		Stop:  srv.Shutdown,
	}}

	if svc.GRPCAddr != "" {
		components = append(components, grpcComponent(log, svc, pinger))
	}

	code := run.New(log).WithSignals(components...)
	log.Info("exit", zap.Int("code", code))
	return code
}

// initUsers selects the UserStore backend.
// In production (APP_ENV=production) it requires a working Postgres connection
// and terminates the process otherwise.
func initUsers(log *zap.Logger, cfg config.AppConfig, svc userscfg.Config) (store.UserStore, store.Pinger, func()) {
	memory := func() (store.UserStore, store.Pinger, func()) {
		s := store.NewInMemoryUserStore()
		return s, s, s.Close
	}

	if svc.DatabaseURL == "" {
		if cfg.IsProduction() {
			fatal(log, "DATABASE_URL is required in production")
		}
		log.Warn("DATABASE_URL not set, using in-memory user store (development only)")
		return memory()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, db.Options{DSN: svc.DatabaseURL, MaxConns: svc.DBMaxConns, MinConns: svc.DBMinConns})
	if err != nil {
		if cfg.IsProduction() {
			fatal(log, "postgres is required in production but unavailable", zap.Error(err))
		}
		log.Warn("postgres unavailable, falling back to in-memory user store", zap.Error(err))
		return memory()
	}

	pg := store.NewPostgresUserStore(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		fatal(log, "postgres schema setup failed", zap.Error(err))
	}
	log.Info("users store: postgres")
	return pg, pg, pool.Close
}

// initCache wraps users with the Redis read-through cache when REDIS_URL is set.
// An unreachable Redis is not fatal: the decorator degrades to pass-through.
func initCache(log *zap.Logger, svc userscfg.Config, users store.UserStore) (store.UserStore, func()) {
	if svc.RedisURL == "" {
		return users, func() {}
	}
	rc, err := cache.NewRedisCache(svc.RedisURL, svc.CacheTTL)
	if err != nil {
		fatal(log, "invalid REDIS_URL", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis ping failed, cache will retry per request", zap.Error(err))
	}
	log.Info("users cache: redis", zap.Duration("ttl", rc.TTL))
	return store.NewCachedUserStore(users, rc, log.Named("cache")), func() { _ = rc.Close() }
}

// initEvents wraps users with the lifecycle event publisher when NATS_URL is set.
func initEvents(log *zap.Logger, cfg config.AppConfig, svc userscfg.Config, users store.UserStore) (store.UserStore, func()) {
	if svc.NATSURL == "" {
		return users, func() {}
	}
	nc, err := natsconn.Connect(natsconn.Options{URL: svc.NATSURL, Name: cfg.ServiceName, Logger: log})
	if err != nil {
		if cfg.IsProduction() {
			fatal(log, "nats is required in production but unavailable", zap.Error(err))
		}
		log.Warn("nats unavailable, user events disabled", zap.Error(err))
		return users, func() {}
	}
	js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		nc.Close()
		fatal(log, "jetstream context", zap.Error(err))
	}
	if err := events.EnsureStream(js); err != nil {
		log.Warn("jetstream stream setup failed", zap.String("stream", events.StreamName), zap.Error(err))
	}
	log.Info("users events: nats", zap.String("stream", events.StreamName))

	pub := events.New(js, log.Named("events"))
	return store.NewNotifyingUserStore(users, pub), func() {
		select {
		case <-js.PublishAsyncComplete():
		case <-time.After(5 * time.Second):
			log.Warn("timed out waiting for pending user events")
		}
		_ = nc.Drain()
	}
}

func grpcComponent(log *zap.Logger, svc userscfg.Config, pinger store.Pinger) run.Component {
	health := grpcapi.NewHealth(pinger, log.Named("grpc"))
	grpcSrv := grpcapi.NewServer(health)
	ctx, cancel := context.WithCancel(context.Background())

	return run.Component{
		Name: "grpc",
		Start: func() error {
			lis, err := net.Listen("tcp", svc.GRPCAddr)
			if err != nil {
				return err
			}
			go health.Run(ctx, svc.HealthEvery)
			log.Info("grpc server starting", zap.String("addr", svc.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		},
		Stop: func(stopCtx context.Context) error {
			cancel()
			health.Shutdown()
			stopped := make(chan struct{})
			go func() {
				grpcSrv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-stopCtx.Done():
				grpcSrv.Stop()
			}
			return nil
		},
	}
}

func fatal(log *zap.Logger, msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
	_ = log.Sync()
	os.Exit(1)
}
