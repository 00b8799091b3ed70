package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"eliteapply/internal/coverletter"
)

var (
	modelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coverletter",
			Name:      "model_calls_total",
			Help:      "求职信生成的模型调用次数。",
		},
		[]string{"model", "status"},
	)

	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "coverletter",
			Name:      "model_call_duration_seconds",
			Help:      "单个模型调用耗时（秒）。",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model"},
	)
)

// ModelCalls 实现 coverletter.Observer。
type ModelCalls struct{}

// ObserveModelCall 记录一次模型调用。
func (ModelCalls) ObserveModelCall(model string, status coverletter.DraftStatus, elapsed time.Duration) {
	modelCallsTotal.WithLabelValues(model, string(status)).Inc()
	modelCallDuration.WithLabelValues(model).Observe(elapsed.Seconds())
}

var _ coverletter.Observer = ModelCalls{}
