package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	accountdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/account/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/webhook"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/config"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/logger"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/metrics"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/tracing"
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config          config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	Engine          *gin.Engine
	Subscriptions   subdomain.Service
	Accounts        accountdomain.Service
	WebhookIngester *webhook.Service
	Clock           clock.Clock
}

type Server struct {
	cfg             config.Config
	db              *gorm.DB
	log             *zap.Logger
	engine          *gin.Engine
	subscriptionSvc subdomain.Service
	accountSvc      accountdomain.Service
	webhookSvc      *webhook.Service
	clock           clock.Clock
	limiter         *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:             p.Config,
		db:              p.DB,
		log:             p.Log.Named("server"),
		engine:          p.Engine,
		subscriptionSvc: p.Subscriptions,
		accountSvc:      p.Accounts,
		webhookSvc:      p.WebhookIngester,
		clock:           p.Clock,
		limiter:         newRateLimiter(p.Config.RateLimit.Limit, p.Config.RateLimit.Window),
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz"},
	}))
	engine.Use(tracing.GinMiddleware())
	engine.Use(metrics.GinMiddleware(httpMetrics))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine, NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(RunHTTP),
)
