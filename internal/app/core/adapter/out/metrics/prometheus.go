package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

var histogramBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}

// Recorder 將引擎操作記錄為 Prometheus 指標
type Recorder struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewRecorder 建立並註冊指標，重複註冊時沿用既有的 collector
//
// 參數:
//
//	reg: Prometheus Registerer，nil 時使用 prometheus.DefaultRegisterer
//
// 回傳:
//
//	*Recorder: Recorder 實例
//	error: 註冊失敗
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "membank",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Count of ledger engine operations by outcome",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "membank",
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Latency distribution of ledger engine operations",
			Buckets:   histogramBuckets,
		}, []string{"op"}),
	}

	if err := reg.Register(r.operations); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		r.operations = existing
	}
	if err := reg.Register(r.latency); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		r.latency = existing
	}
	return r, nil
}

// ObserveOperation implements usecase.Recorder.
func (r *Recorder) ObserveOperation(op string, outcome string, elapsed time.Duration) {
	r.operations.WithLabelValues(op, outcome).Inc()
	r.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

var _ usecase.Recorder = (*Recorder)(nil)
