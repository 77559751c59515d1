package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PreferenceMetrics holds all Prometheus metrics for the preference service.
type PreferenceMetrics struct {
	ResolutionsTotal     prometheus.Counter
	MutationsTotal       *prometheus.CounterVec
	StorageOpsTotal      *prometheus.CounterVec
	StorageDecodeErrors  prometheus.Counter
	TokensInjectedTotal  prometheus.Counter
	ChangesPublished     prometheus.Counter
	StreamClients        prometheus.Gauge
	TenantCacheHits      prometheus.Counter
	TenantCacheMisses    prometheus.Counter
	SnapshotsSyncedTotal prometheus.Counter
}

// NewPreferenceMetrics initializes and registers the Prometheus metrics.
func NewPreferenceMetrics() *PreferenceMetrics {
	return &PreferenceMetrics{
		ResolutionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of effective preference resolutions.",
		}),
		MutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "resolver",
			Name:      "mutations_total",
			Help:      "Total number of preference mutations by field and status.",
		}, []string{"field", "status"}), // status: applied, rejected, skipped
		StorageOpsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of storage adapter operations by op, scope and status.",
		}, []string{"op", "scope", "status"}), // status: ok, miss, error
		StorageDecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "storage",
			Name:      "decode_errors_total",
			Help:      "Total number of stored values that failed JSON decoding and were treated as absent.",
		}),
		TokensInjectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "auth",
			Name:      "tokens_injected_total",
			Help:      "Total number of outgoing requests that received a bearer credential.",
		}),
		ChangesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "changefeed",
			Name:      "changes_published_total",
			Help:      "Total number of preference change events published.",
		}),
		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "prefhub",
			Subsystem: "stream",
			Name:      "clients_gauge",
			Help:      "Number of connected preference stream subscribers.",
		}),
		TenantCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "tenant",
			Name:      "language_cache_hits_total",
			Help:      "Total number of allowed-language cache hits.",
		}),
		TenantCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "tenant",
			Name:      "language_cache_misses_total",
			Help:      "Total number of allowed-language cache misses.",
		}),
		SnapshotsSyncedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "prefhub",
			Subsystem: "syncer",
			Name:      "snapshots_synced_total",
			Help:      "Total number of preference snapshots persisted by the sync worker.",
		}),
	}
}
