package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AcquisitionsTotal 采集次数（source: device/simulator，result: ok/unreachable/error）
	AcquisitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_acquisitions_total",
			Help: "Total number of vitals acquisition cycles",
		},
		[]string{"source", "result"},
	)

	// CyclesSkipped 上一轮未完成而跳过的触发
	CyclesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitals_cycles_skipped_total",
			Help: "Poll fires skipped because the previous cycle was still in flight",
		},
	)

	// DeviceReadDuration 设备读取耗时
	DeviceReadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitals_device_read_duration_seconds",
			Help:    "Device GET /data latency in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// AlertsTotal 文本报警次数（vital: temperature/heart_rate/oxygen_level）
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_alerts_total",
			Help: "Total number of vitals alerts raised",
		},
		[]string{"vital"},
	)

	// DeviceConnected 最近一次采集是否连上设备
	DeviceConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitals_device_connected",
			Help: "1 when the last acquisition reached a live device",
		},
	)

	// PersistenceWrites 记录写入（result: ok/auth_required/error）
	PersistenceWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_persistence_writes_total",
			Help: "Total number of vitals record writes",
		},
		[]string{"result"},
	)

	// SinkPublishes 样本转发（sink: redis/mqtt，status: ok/error）
	SinkPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitals_sink_publishes_total",
			Help: "Total number of sample publishes to fan-out sinks",
		},
		[]string{"sink", "status"},
	)

	// RequestsTotal HTTP 请求数
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration HTTP 请求耗时
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
