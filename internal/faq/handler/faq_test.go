package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinko-io/faq-service/internal/faq/metrics"
	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/pkg/errors"
	"github.com/kinko-io/faq-service/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubService scripts the pipeline outcome per test.
type stubService struct {
	result    *model.AnswerResult
	answerErr error
	reloadErr error
	stats     map[string]any
	statsErr  error

	lastQuestion string
	lastLang     string
}

func (s *stubService) Answer(_ context.Context, question, lang string) (*model.AnswerResult, error) {
	s.lastQuestion = question
	s.lastLang = lang
	if s.answerErr != nil {
		return nil, s.answerErr
	}
	return s.result, nil
}

func (s *stubService) Reload(context.Context) error { return s.reloadErr }

func (s *stubService) Stats(context.Context) (map[string]any, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return s.stats, nil
}

func newTestContext(method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestQuery_Success(t *testing.T) {
	svc := &stubService{
		result: &model.AnswerResult{
			Answer:     "Oui, dès 6 ans. Sources : [1]",
			Sources:    []model.Source{{ID: 1, URL: "/pages/faq#age", Label: "FAQ : Quel âge ?"}},
			Confidence: model.ConfidenceHigh,
			Mode:       model.ModeFAQ,
		},
	}
	h := NewFAQHandler(svc)

	c, w := newTestContext(http.MethodPost, "/v1/faq/query", `{"q":"Quel âge ?","lang":"fr"}`)
	h.Query(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Quel âge ?", svc.lastQuestion)
	assert.Equal(t, "fr", svc.lastLang)

	var result model.AnswerResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, model.ModeFAQ, result.Mode)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "/pages/faq#age", result.Sources[0].URL)
}

func TestQuery_LongFieldName(t *testing.T) {
	svc := &stubService{result: &model.AnswerResult{Answer: "ok", Mode: model.ModeRAG, Confidence: model.ConfidenceLow}}
	h := NewFAQHandler(svc)

	c, w := newTestContext(http.MethodPost, "/v1/faq/query", `{"question":"Quels gants ?"}`)
	h.Query(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Quels gants ?", svc.lastQuestion)
}

func TestQuery_InvalidInput(t *testing.T) {
	svc := &stubService{answerErr: errors.ErrInvalidInput}
	h := NewFAQHandler(svc)

	c, w := newTestContext(http.MethodPost, "/v1/faq/query", `{"q":""}`)
	h.Query(c)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrInvalidInput.Code, resp.Code)
	assert.NotEmpty(t, resp.Message)
}

func TestQuery_MalformedBody(t *testing.T) {
	// A broken body degrades to an empty question; the service decides.
	svc := &stubService{answerErr: errors.ErrInvalidInput}
	h := NewFAQHandler(svc)

	c, w := newTestContext(http.MethodPost, "/v1/faq/query", `{"q":`)
	h.Query(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.lastQuestion)
}

func TestQuery_ModelExhausted(t *testing.T) {
	svc := &stubService{answerErr: &errors.ModelExhaustedError{
		Models:  []string{"m1", "m2"},
		LastErr: errors.New("status 429"),
	}}
	h := NewFAQHandler(svc)

	c, w := newTestContext(http.MethodPost, "/v1/faq/query", `{"q":"Quel âge ?"}`)
	h.Query(c)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrModelExhausted.Code, resp.Code)
	assert.Contains(t, resp.Message, "m2")
}

func TestQuery_Upstream(t *testing.T) {
	svc := &stubService{answerErr: errors.ErrUpstream.WithCause(errors.New("open data/index.json: no such file"))}
	h := NewFAQHandler(svc)

	c, w := newTestContext(http.MethodPost, "/v1/faq/query", `{"q":"Quel âge ?"}`)
	h.Query(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrUpstream.Code, resp.Code)
}

func TestStats(t *testing.T) {
	svc := &stubService{stats: map[string]any{"index": map[string]any{"loaded": true}}}
	h := NewFAQHandler(svc)

	c, w := newTestContext(http.MethodGet, "/v1/faq/stats", "")
	h.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Contains(t, stats, "index")
}

func TestReload(t *testing.T) {
	h := NewFAQHandler(&stubService{})

	c, w := newTestContext(http.MethodPost, "/v1/faq/reload", "")
	h.Reload(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "index reset")
}

func TestMetrics(t *testing.T) {
	metrics.Get().Reset()
	metrics.Get().RecordQuestion(false, nil)

	h := NewFAQHandler(&stubService{})
	c, w := newTestContext(http.MethodGet, "/metrics", "")
	h.Metrics(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kinko_faq_questions_total")
}

func TestHealthz(t *testing.T) {
	h := NewFAQHandler(&stubService{})
	c, w := newTestContext(http.MethodGet, "/healthz", "")
	h.Healthz(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
