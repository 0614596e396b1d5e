// Package router wires the FAQ service routes and middleware.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/kinko-io/faq-service/internal/faq/handler"
)

// RequestIDHeader carries the per-request ULID.
const RequestIDHeader = "X-Request-Id"

// New builds the gin engine with middleware and routes.
func New(faqHandler *handler.FAQHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), CORS())

	engine.GET("/healthz", faqHandler.Healthz)
	engine.GET("/metrics", faqHandler.Metrics)

	v1 := engine.Group("/v1")
	{
		faq := v1.Group("/faq")
		{
			faq.POST("/query", faqHandler.Query)
			faq.GET("/stats", faqHandler.Stats)
			faq.POST("/reload", faqHandler.Reload)
		}
	}

	return engine
}

// RequestID attaches a ULID to every request, honoring one supplied by the
// caller, and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// CORS allows the storefront widget to call the API from the browser.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
