package api

import (
	"ShopFulfillment/pkg/logger"
	"ShopFulfillment/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Paths whose bodies carry signed payloads or token secrets.
var unloggedBodies = []string{"/webhooks/payments", "/downloads/tokens", "/downloads/redeem", "/downloads/complete"}

func NewGinEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.CorrelationMiddleware(),
		metrics.GinMiddleware(),
		logger.BodyLogger(unloggedBodies...),
		gin.Recovery(),
	)
	return engine
}
