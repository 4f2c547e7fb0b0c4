package diag

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry 为进程内私有注册表；CLI 以 textfile 形式导出。
var Registry = prometheus.NewRegistry()

var (
	opTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "uwc_op_total",
		Help: "Component operations by stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "uwc_error_total",
		Help: "Errors by component and classification code.",
	}, []string{"comp", "code"})

	opDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uwc_op_duration_seconds",
		Help:    "Duration of component operations.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"comp", "stage"})

	linesCounted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "uwc_lines_counted_total",
		Help: "Lines counted across all inputs.",
	})

	chunksDispatched = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "uwc_chunks_dispatched_total",
		Help: "Chunks handed to the worker pool.",
	})
)

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数；CodeUnknown 不计入。
func IncError(comp string, code Code) {
	if code == CodeUnknown {
		return
	}
	errorTotal.WithLabelValues(comp, string(code)).Inc()
}

// ObserveDuration 记录阶段耗时。
func ObserveDuration(comp, stage string, d time.Duration) {
	opDuration.WithLabelValues(comp, stage).Observe(d.Seconds())
}

// AddWork 累加已派发的块数与行数。
func AddWork(chunks, lines int64) {
	chunksDispatched.Add(float64(chunks))
	linesCounted.Add(float64(lines))
}

// WriteTextfile 以 node-exporter textfile 格式原子写出全部指标。
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
