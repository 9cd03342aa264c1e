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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/articlehub/articlehub/handlers"
	"github.com/articlehub/articlehub/internal/article"
	"github.com/articlehub/articlehub/internal/article/handler"
	"github.com/articlehub/articlehub/internal/article/repository"
	"github.com/articlehub/articlehub/internal/article/service"
	"github.com/articlehub/articlehub/internal/config"
	"github.com/articlehub/articlehub/internal/database"
	"github.com/articlehub/articlehub/internal/identity"
	"github.com/articlehub/articlehub/internal/users"
	"github.com/articlehub/articlehub/pkg/logger"
	"github.com/articlehub/articlehub/pkg/metrics"
	"github.com/articlehub/articlehub/pkg/middleware"
)

const mongoAttempts = 5

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v env=%s", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Server.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS())

	rdb := connectRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	// per-user when authenticated, otherwise per-IP
	var limits []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limits = append(limits, middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			limits = append(limits, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// left as a nil interface when nothing is configured: the auth gate then answers 503
	var verifier identity.Verifier
	if v, err := identity.FromConfig(ctx, cfg.Identity, rdb); err != nil {
		logger.Warnf("identity verifier unavailable: %v", err)
	} else if v != nil {
		verifier = v
	} else {
		logger.Warn("no identity provider configured; mutating routes will answer 503")
	}

	var (
		repo    repository.Repository
		userSvc *users.Service
		client  *mongo.Client
	)
	if cfg.MongoDB.URI != "" {
		mc, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoAttempts)
		if err != nil {
			// store stays nil: article routes answer 503
			logger.Errorf("could not connect to MongoDB: %v", err)
		} else {
			client = mc
			defer func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(dctx)
			}()
			db := client.Database(cfg.MongoDB.Database)
			mrepo := repository.NewMongoRepo(db.Collection(cfg.MongoDB.Collection))
			if err := mrepo.EnsureIndexes(ctx); err != nil {
				logger.Warnf("ensure article indexes: %v", err)
			}
			repo = mrepo

			urepo := users.NewMongoUserRepository(db.Collection("users"))
			if err := urepo.EnsureIndexes(ctx); err != nil {
				logger.Warnf("ensure user indexes: %v", err)
			}
			userSvc = users.NewService(urepo)
		}
	} else {
		mem := repository.NewMemoryRepo()
		if _, err := mem.Seed(ctx, article.DefaultSeed...); err != nil {
			return fmt.Errorf("seed memory store: %w", err)
		}
		logger.Warn("MONGODB_URI not set; using in-memory article store")
		repo = mem
	}

	svc := service.NewService(repo)
	handler.RegisterArticleRoutes(r, svc, verifier, limits...)
	handlers.RegisterMe(r, verifier, userSvc, limits...)
	handlers.RegisterHealth(r, startTime, 2*time.Second, readiness(cfg, repo, client, rdb, verifier)...)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterStatic(r, cfg.Server.StaticDir)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	logger.Debugf("services: store=%v users=%v verifier=%v", repo != nil, userSvc != nil, verifier != nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting article service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	addr := cfg.Addr()
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		_ = rdb.Close()
		return nil
	}
	logger.Infof("Connected to Redis: %s", addr)
	return rdb
}

func readiness(cfg *config.Config, repo repository.Repository, client *mongo.Client, rdb *redis.Client, ver identity.Verifier) []handlers.Dependency {
	deps := []handlers.Dependency{
		{Name: "store", Required: true, Check: func(context.Context) error {
			if repo == nil {
				return service.ErrUnavailable
			}
			return nil
		}},
		{Name: "verifier", Required: true, Check: func(context.Context) error {
			if ver == nil {
				return errors.New("no identity verifier")
			}
			return nil
		}},
	}
	if client != nil {
		deps = append(deps, handlers.Dependency{Name: "mongo", Required: true, Check: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}})
	}
	if cfg.Redis.Host != "" {
		required := cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis
		deps = append(deps, handlers.Dependency{Name: "redis", Required: required, Check: func(ctx context.Context) error {
			if rdb == nil {
				return errors.New("redis not connected")
			}
			return rdb.Ping(ctx).Err()
		}})
	}
	return deps
}
