package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meal_planner"

// Metrics 生成流程的 Prometheus 指標；nil 接收者的方法皆為 no-op
type Metrics struct {
	registry           *prometheus.Registry
	generationAttempts *prometheus.CounterVec
	parseTotal         *prometheus.CounterVec
	modelDuration      *prometheus.HistogramVec
	historyFailures    prometheus.Counter
}

// NewMetrics 在獨立 registry 上建立指標
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_attempts_total",
			Help:      "Recipe generation attempts by outcome",
		}, []string{"outcome"}),
		parseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_total",
			Help:      "Parsed model responses by strategy",
		}, []string{"source"}),
		modelDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Model completion latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"provider", "status"}),
		historyFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_context_failures_total",
			Help:      "History lookups that failed and were skipped",
		}),
	}
}

// ObserveAttempt 記錄一次生成嘗試的結果（success / retry / failure）
func (m *Metrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(outcome).Inc()
}

// ObserveParse 記錄解析策略
func (m *Metrics) ObserveParse(source string) {
	if m == nil {
		return
	}
	m.parseTotal.WithLabelValues(source).Inc()
}

// ObserveModelCall 記錄模型呼叫耗時
func (m *Metrics) ObserveModelCall(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.modelDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

// ObserveHistoryFailure 記錄歷史查詢失敗
func (m *Metrics) ObserveHistoryFailure() {
	if m == nil {
		return
	}
	m.historyFailures.Inc()
}

// Handler /metrics 處理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 供測試讀取指標
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
