// Package handler provides the HTTP handlers of the FAQ service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kinko-io/faq-service/internal/faq/biz"
	"github.com/kinko-io/faq-service/internal/faq/metrics"
	"github.com/kinko-io/faq-service/pkg/errors"
)

// queryTimeout bounds one full pipeline run, completion fallback included.
const queryTimeout = 60 * time.Second

// FAQHandler handles FAQ HTTP requests.
type FAQHandler struct {
	service biz.Service
}

// NewFAQHandler creates a new FAQHandler.
func NewFAQHandler(service biz.Service) *FAQHandler {
	return &FAQHandler{service: service}
}

// QueryRequest is the question payload. The storefront widget sends the
// short "q" form; "question" is accepted as well.
type QueryRequest struct {
	Question string `json:"question"`
	Q        string `json:"q"`
	Lang     string `json:"lang"`
}

func (r *QueryRequest) question() string {
	if r.Question != "" {
		return r.Question
	}
	return r.Q
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Query answers one question.
func (h *FAQHandler) Query(c *gin.Context) {
	var req QueryRequest
	// A malformed body is treated like an empty question; the service
	// returns the typed invalid-input error either way.
	_ = c.ShouldBindJSON(&req)

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	result, err := h.service.Answer(ctx, req.question(), req.Lang)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Stats reports service counters and component state.
func (h *FAQHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Reload discards the memoized document index.
func (h *FAQHandler) Reload(c *gin.Context) {
	if err := h.service.Reload(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "index reset"})
}

// Metrics exposes the counters in Prometheus text format.
func (h *FAQHandler) Metrics(c *gin.Context) {
	c.String(http.StatusOK, metrics.Get().Export("kinko", "faq"))
}

// Healthz is the liveness probe.
func (h *FAQHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps the typed pipeline errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)

	code := status
	var errno *errors.Errno
	if errors.As(err, &errno) {
		code = errno.Code
	} else if errors.Is(err, errors.ErrModelExhausted) {
		code = errors.ErrModelExhausted.Code
	}

	c.JSON(status, ErrorResponse{Code: code, Message: err.Error()})
}
