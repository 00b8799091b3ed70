package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"eliteapply/internal/coverletter"
)

func TestAsynqMetricsMiddleware_CountsResults(t *testing.T) {
	mw := AsynqMetricsMiddleware()
	ok := mw(asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return nil }))
	bad := mw(asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return errors.New("db down") }))

	task := asynq.NewTask("test:metrics", nil)
	beforeOK := testutil.ToFloat64(taskProcessedTotal.WithLabelValues("test:metrics", "ok"))
	beforeErr := testutil.ToFloat64(taskProcessedTotal.WithLabelValues("test:metrics", "error"))

	_ = ok.ProcessTask(context.Background(), task)
	if err := bad.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("middleware must pass errors through")
	}

	if got := testutil.ToFloat64(taskProcessedTotal.WithLabelValues("test:metrics", "ok")); got != beforeOK+1 {
		t.Fatalf("ok counter = %v", got)
	}
	if got := testutil.ToFloat64(taskProcessedTotal.WithLabelValues("test:metrics", "error")); got != beforeErr+1 {
		t.Fatalf("error counter = %v", got)
	}
}

func TestGinMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/v1/resumes/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/v1/resumes/:id", "204"))
	beforeUnmatched := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/resumes/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-login.php", nil))

	if got := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/v1/resumes/:id", "204")); got != before+1 {
		t.Fatalf("route counter = %v", got)
	}
	if got := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != beforeUnmatched+1 {
		t.Fatalf("unmatched counter = %v", got)
	}
}

func TestModelCalls_Observe(t *testing.T) {
	before := testutil.ToFloat64(modelCallsTotal.WithLabelValues("openai/gpt-4o", "error"))
	ModelCalls{}.ObserveModelCall("openai/gpt-4o", coverletter.StatusError, 2*time.Second)
	if got := testutil.ToFloat64(modelCallsTotal.WithLabelValues("openai/gpt-4o", "error")); got != before+1 {
		t.Fatalf("model call counter = %v", got)
	}
}
