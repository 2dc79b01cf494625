package handlers

import (
	"math"
	"net/http"
	"strconv"

	"ShopFulfillment/internal/api/domain/ratelimit"
	"ShopFulfillment/internal/api/domain/token"
	"ShopFulfillment/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const rateLimitScopeIssue = "token_issue"

type TokenHandler struct {
	service TokenService
	limiter RateLimiter
}

func NewTokenHandler(s TokenService, limiter RateLimiter) *TokenHandler {
	return &TokenHandler{service: s, limiter: limiter}
}

// Issue creates a download token for one or more files.
// POST /downloads/tokens
func (h *TokenHandler) Issue(c *gin.Context) {
	decision := h.limiter.Check(c.Request.Context(), ratelimit.ClientKey(c.Request.Header))
	if !decision.Allowed {
		metrics.RateLimitRejections.WithLabelValues(rateLimitScopeIssue).Inc()
		c.Header("Retry-After", retryAfterSeconds(decision))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	var request token.IssueRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	issued, err := h.service.Issue(c.Request.Context(), request)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, issued)
}

func retryAfterSeconds(d ratelimit.Decision) string {
	seconds := int(math.Ceil(d.RetryAfter.Seconds()))
	return strconv.Itoa(max(seconds, 1))
}

// Redeem starts a download. It can be repeated until the token is completed.
// POST /downloads/redeem
func (h *TokenHandler) Redeem(c *gin.Context) {
	var request token.RedeemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	t, err := h.service.Begin(c.Request.Context(), request.Token)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, token.Redemption{
		Status:    "started",
		FilePaths: t.FilePaths,
		ExpiresAt: t.ExpiresAt,
	})
}

// Complete consumes the token after a successful download.
// POST /downloads/complete
func (h *TokenHandler) Complete(c *gin.Context) {
	var request token.RedeemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	if err := h.service.Complete(c.Request.Context(), request.Token); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
