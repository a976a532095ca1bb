package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pikecape/duck-service/handlers"
	"github.com/pikecape/duck-service/internal/config"
	"github.com/pikecape/duck-service/internal/database"
	"github.com/pikecape/duck-service/internal/duck/handler"
	"github.com/pikecape/duck-service/internal/duck/repository"
	"github.com/pikecape/duck-service/internal/duck/service"
	"github.com/pikecape/duck-service/internal/duck/snapshot"
	"github.com/pikecape/duck-service/internal/storage"
	"github.com/pikecape/duck-service/pkg/logger"
	"github.com/pikecape/duck-service/pkg/metrics"
	"github.com/pikecape/duck-service/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const probeTimeout = 2 * time.Second

var (
	startTime   = time.Now()
	metricsOnce sync.Once
)

func registerMetrics() {
	metricsOnce.Do(func() { metrics.RegisterCollectors(prometheus.DefaultRegisterer) })
}

// deps holds the connections shared by the routes. Nil fields are not configured.
type deps struct {
	mongo    *mongo.Client
	redis    *redis.Client
	blob     *storage.MinIOStorage
	blobErr  error
	svc      service.Service
	exporter *snapshot.Exporter
}

// openDeps connects the store before anything is served. Redis and MinIO are
// optional: failures there are logged and the feature is left off.
func openDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	d := &deps{}
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warnf("using the in-memory duck store; data is lost on exit")
		d.svc = service.NewMemoryService()
	default:
		client, err := database.ConnectWithBackoff(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
		if err != nil {
			return nil, err
		}
		d.mongo = client
		col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection)
		d.svc = service.New(repository.NewMongoRepo(col))
		logger.Infof("connected to MongoDB %s.%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
	}

	if addr := cfg.Redis.Addr(); addr != "" {
		d.redis = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		if err := d.redis.Ping(pctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
		} else {
			logger.Infof("connected to Redis %s", addr)
		}
		cancel()
	}

	if cfg.MinIO.Enabled() {
		blob, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			d.blobErr = err
			logger.Warnf("snapshot export disabled: %v", err)
		} else {
			d.blob = blob
			d.exporter = snapshot.NewExporter(d.svc, blob, cfg.MinIO.Prefix, cfg.MinIO.PresignTTL)
		}
	}
	return d, nil
}

// Close releases every open connection.
func (d *deps) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if d.mongo != nil {
		if err := d.mongo.Disconnect(ctx); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

func newRouter(cfg *config.Config, d *deps) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Permissive CORS for browser clients; the API carries no credentials.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, "+handler.DeletedCountHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && d.redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(d.redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win, middleware.ClientIPKey))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst, middleware.ClientIPKey))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		status, body := readiness(c.Request.Context(), cfg, d)
		c.JSON(status, body)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(r, cfg.Server.BasePath)

	handler.RegisterDuckRoutes(r.Group(cfg.Server.BasePath), d.svc)
	if d.exporter != nil {
		handler.RegisterSnapshotRoutes(r, d.exporter)
	}
	return r
}

// readiness reports 200 only when every configured dependency answers.
func readiness(ctx context.Context, cfg *config.Config, d *deps) (int, gin.H) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	ready := true
	checks := map[string]bool{}

	if d.mongo != nil {
		checks["mongo"] = d.mongo.Ping(ctx, nil) == nil
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis {
		checks["redis"] = d.redis != nil && d.redis.Ping(ctx).Err() == nil
	}
	if cfg.MinIO.Enabled() {
		checks["minio"] = d.blob != nil && d.blob.Ping(ctx) == nil
	}
	for _, ok := range checks {
		ready = ready && ok
	}

	body := gin.H{"deps": checks, "store": cfg.Store, "uptime": time.Since(startTime).Round(time.Second).String()}
	if !ready {
		body["status"] = "not_ready"
		return http.StatusServiceUnavailable, body
	}
	body["status"] = "ready"
	return http.StatusOK, body
}
