package metrics

import (
	"errors"
	"time"

	"github.com/newthinker/fundwatch/internal/core"
	"github.com/newthinker/fundwatch/internal/namecache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics of a run.
type Registry struct {
	*prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.GaugeVec
	runTimestamp     *prometheus.GaugeVec
	runSuccessAssets *prometheus.GaugeVec
	watchlistAssets  *prometheus.GaugeVec

	outcomesTotal   *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec

	nameCacheLookups *prometheus.GaugeVec
	nameCacheHits    *prometheus.GaugeVec
	nameCacheMisses  *prometheus.GaugeVec
	nameCacheSize    *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())

	r := &Registry{Registry: reg}

	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundwatch_runs_total",
			Help: "Total number of snapshot runs",
		},
		[]string{"run", "status"},
	)
	r.runDuration = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fundwatch_run_duration_seconds",
			Help: "Duration of the last run in seconds",
		},
		[]string{"run"},
	)
	r.runTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fundwatch_run_last_timestamp_seconds",
			Help: "Unix time the last run finished",
		},
		[]string{"run"},
	)
	r.runSuccessAssets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fundwatch_run_success_assets",
			Help: "Number of assets resolved successfully in the last run",
		},
		[]string{"run"},
	)
	r.watchlistAssets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fundwatch_watchlist_assets",
			Help: "Number of assets in the watch list",
		},
		[]string{"run"},
	)
	r.outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundwatch_outcomes_total",
			Help: "Per-asset outcomes by class and status",
		},
		[]string{"class", "status"},
	)
	r.resolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fundwatch_resolve_duration_seconds",
			Help:    "Time to resolve one asset in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"class"},
	)
	r.nameCacheLookups = nameCacheGauge("lookups", "Remote name lookups in the last run")
	r.nameCacheHits = nameCacheGauge("hits", "Name lookups answered from memory in the last run")
	r.nameCacheMisses = nameCacheGauge("misses", "Name lookups that found nothing in the last run")
	r.nameCacheSize = nameCacheGauge("size", "Names memoized at the end of the last run")

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.runTimestamp)
	reg.MustRegister(r.runSuccessAssets)
	reg.MustRegister(r.watchlistAssets)
	reg.MustRegister(r.outcomesTotal)
	reg.MustRegister(r.resolveDuration)
	reg.MustRegister(r.nameCacheLookups)
	reg.MustRegister(r.nameCacheHits)
	reg.MustRegister(r.nameCacheMisses)
	reg.MustRegister(r.nameCacheSize)

	return r
}

func nameCacheGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fundwatch_namecache_" + name,
			Help: help,
		},
		[]string{"run"},
	)
}

// RecordOutcome records one asset outcome.
func (r *Registry) RecordOutcome(out core.Outcome, elapsed time.Duration) {
	class := string(out.Asset.Class)
	r.outcomesTotal.WithLabelValues(class, outcomeStatus(out)).Inc()
	r.resolveDuration.WithLabelValues(class).Observe(elapsed.Seconds())
}

// RecordRun records a finished run. status is "ok" or "error".
func (r *Registry) RecordRun(run, status string, total, success int, duration time.Duration, finished time.Time) {
	r.runsTotal.WithLabelValues(run, status).Inc()
	r.runDuration.WithLabelValues(run).Set(duration.Seconds())
	r.runTimestamp.WithLabelValues(run).Set(float64(finished.Unix()))
	r.watchlistAssets.WithLabelValues(run).Set(float64(total))
	r.runSuccessAssets.WithLabelValues(run).Set(float64(success))
}

// RecordNameCache records the name cache counters of a run.
func (r *Registry) RecordNameCache(run string, s namecache.Stats) {
	r.nameCacheLookups.WithLabelValues(run).Set(float64(s.Lookups))
	r.nameCacheHits.WithLabelValues(run).Set(float64(s.Hits))
	r.nameCacheMisses.WithLabelValues(run).Set(float64(s.Misses))
	r.nameCacheSize.WithLabelValues(run).Set(float64(s.Size))
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector. The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}

// outcomeStatus labels an outcome "ok" or by its error code.
func outcomeStatus(out core.Outcome) string {
	if out.OK() {
		return "ok"
	}
	for _, base := range []*core.Error{
		core.ErrCancelled,
		core.ErrProviderTimeout,
		core.ErrRateLimited,
		core.ErrProviderFailed,
		core.ErrPayloadInvalid,
		core.ErrNotFound,
		core.ErrInsufficientData,
		core.ErrNoData,
		core.ErrConfigInvalid,
		core.ErrConfigMissing,
	} {
		if errors.Is(out.Err, base) {
			return base.Code
		}
	}
	return "error"
}
