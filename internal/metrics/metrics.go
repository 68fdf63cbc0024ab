package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Key-value writes per storage key.
	KVWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyplanner_kv_writes_total",
			Help: "Key-value aggregate writes",
		},
		[]string{"key", "result"},
	)

	// Reads that fell back to a default because stored data was unusable.
	KVFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyplanner_kv_fallbacks_total",
			Help: "Key-value reads replaced by a default value",
		},
		[]string{"key", "reason"},
	)

	RecordStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyplanner_record_store_ops_total",
			Help: "Record store operations by collection",
		},
		[]string{"collection", "op", "result"},
	)

	AutosaveFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyplanner_autosave_flushes_total",
			Help: "Debounced autosave flushes",
		},
		[]string{"store", "result"},
	)

	BackupOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyplanner_backup_operations_total",
			Help: "Backup exports and imports",
		},
		[]string{"op", "result"},
	)
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
