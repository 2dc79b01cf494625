package api

import (
	"ShopFulfillment/internal/api/handlers"
	"ShopFulfillment/pkg/health"
	"ShopFulfillment/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	order          *handlers.OrderHandler
	token          *handlers.TokenHandler
	webhook        *handlers.WebhookHandler
	healthRegistry *health.Registry
	adminKey       string
}

func NewRouter(
	order *handlers.OrderHandler,
	token *handlers.TokenHandler,
	webhook *handlers.WebhookHandler,
	healthRegistry *health.Registry,
	adminKey string,
) *Router {
	return &Router{
		order:          order,
		token:          token,
		webhook:        webhook,
		healthRegistry: healthRegistry,
		adminKey:       adminKey,
	}
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	engine.POST("/webhooks/payments", r.webhook.Payments)

	orders := engine.Group("/orders", handlers.IdentifyAdmin(r.adminKey))
	{
		orders.POST("", r.order.Create)
		orders.GET("", r.order.Filter)
		orders.GET("/events", r.order.GetEvents)
		orders.GET("/:order_id", r.order.Get)
	}

	admin := orders.Group("/:order_id", handlers.RequireAdminKey(r.adminKey))
	{
		admin.POST("/tracking", r.order.AssignTracking)
		admin.POST("/shipment/amend", r.order.AmendShipment)
	}

	downloads := engine.Group("/downloads")
	{
		downloads.POST("/tokens", r.token.Issue)
		downloads.POST("/redeem", r.token.Redeem)
		downloads.POST("/complete", r.token.Complete)
	}
}
