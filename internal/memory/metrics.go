package memory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type managerMetrics struct {
	allocsTotal   prometheus.Counter
	reallocsTotal prometheus.Counter
	freesTotal    prometheus.Counter
	failuresTotal *prometheus.CounterVec
	bytesInUse    prometheus.Gauge
	bytesTotal    prometheus.Gauge
}

func newManagerMetrics(reg prometheus.Registerer) *managerMetrics {
	return &managerMetrics{
		allocsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "gridstone",
			Subsystem: "memory",
			Name:      "allocs_total",
			Help:      "Completed allocations.",
		}),
		reallocsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "gridstone",
			Subsystem: "memory",
			Name:      "reallocs_total",
			Help:      "Completed reallocations.",
		}),
		freesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "gridstone",
			Subsystem: "memory",
			Name:      "frees_total",
			Help:      "Completed frees.",
		}),
		failuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridstone",
			Subsystem: "memory",
			Name:      "failures_total",
			Help:      "Failed allocator operations.",
		}, []string{"op"}),
		bytesInUse: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "gridstone",
			Subsystem: "memory",
			Name:      "bytes_in_use",
			Help:      "Bytes currently allocated.",
		}),
		bytesTotal: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "gridstone",
			Subsystem: "memory",
			Name:      "bytes_total",
			Help:      "Configured device capacity in bytes.",
		}),
	}
}
