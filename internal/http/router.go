package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/newzify/newzify/internal/auth"
	"github.com/newzify/newzify/internal/cache"
	"github.com/newzify/newzify/internal/config"
	"github.com/newzify/newzify/internal/http/handlers"
	"github.com/newzify/newzify/internal/http/middlewares"
	"github.com/newzify/newzify/internal/newsapi"
	"github.com/newzify/newzify/internal/observability"
	"github.com/newzify/newzify/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for these payloads

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, health handlers.Readiness, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// metrics registry for this process
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("newzify-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.ClientOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	subscribersRepo := postgres.NewSubscribersRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL)

	// wire up handlers
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager, jobsRepo, health, prom, log)
	subscribeHandler := handlers.NewSubscribeHandler(subscribersRepo, jobsRepo, health, log)
	healthHandler := handlers.NewHealthHandler(health)
	newsHandler := handlers.NewNewsHandler(newsSource(rdb, cfg), log)

	r.POST("/api/register", authHandler.Register)
	r.POST("/api/login", authHandler.Login)
	r.GET("/api/health", healthHandler.Health)
	r.GET("/api/news", newsHandler.TopHeadlines)
	r.POST("/subscribe", subscribeHandler.Subscribe)

	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func newsSource(rdb *redis.Client, cfg config.Config) handlers.HeadlineSource {
	if cfg.NewsAPIKey == "" {
		// without a key the route answers 503; the SPA falls back to its
		// own direct fetch path
		return nil
	}

	client := newsapi.NewClient(newsapi.Config{
		APIKey:  cfg.NewsAPIKey,
		BaseURL: cfg.NewsAPIBaseURL,
		Timeout: 10 * time.Second,
	}, nil)

	return cache.NewCachingHeadlineSource(rdb, cfg.NewsCacheTTL, client)
}
