package ingest

import (
	"ShopFulfillment/internal/api/handlers"
	"ShopFulfillment/pkg/health"
	"ShopFulfillment/pkg/logger"
	"ShopFulfillment/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	webhook        *handlers.WebhookHandler
	healthRegistry *health.Registry
}

func NewRouter(webhook *handlers.WebhookHandler, healthRegistry *health.Registry) *Router {
	return &Router{
		webhook:        webhook,
		healthRegistry: healthRegistry,
	}
}

func NewEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.CorrelationMiddleware(),
		metrics.GinMiddleware(),
		gin.Recovery(),
	)
	return engine
}

func (r *Router) SetUp(engine *gin.Engine) {
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Webhook endpoint only
	engine.POST("/webhooks/payments", r.webhook.Payments)
}
