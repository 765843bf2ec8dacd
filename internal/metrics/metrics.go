// Package metrics exposes run and geometry metrics in the Prometheus
// format, either scraped over HTTP or written to a textfile after a batch
// run.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jcristia/CGA/pkg/geo"
)

// Metrics owns a private registry and the collectors registered in it.
type Metrics struct {
	registry *prometheus.Registry

	geometryOps      *prometheus.CounterVec
	geometryErrors   *prometheus.CounterVec
	geometryDuration *prometheus.HistogramVec
	layers           *prometheus.CounterVec
	included         *prometheus.CounterVec
	runs             *prometheus.CounterVec
	runDuration      prometheus.Gauge
	lastRun          prometheus.Gauge
}

// New registers the collectors under namespace.
func New(namespace string) (*Metrics, error) {
	if namespace == "" {
		return nil, fmt.Errorf("metrics namespace is required")
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		geometryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "geometry", Name: "operations_total",
			Help: "Geometry engine calls by operation.",
		}, []string{"op"}),
		geometryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "geometry", Name: "errors_total",
			Help: "Failed geometry engine calls by operation.",
		}, []string{"op"}),
		geometryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "geometry", Name: "duration_seconds",
			Help:    "Geometry engine call latency.",
			Buckets: []float64{.0001, .001, .01, .1, .5, 1, 5, 30},
		}, []string{"op"}),
		layers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "layers_processed_total",
			Help: "Feature layers run through presence aggregation by kind.",
		}, []string{"kind"}),
		included: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "presence_included_total",
			Help: "MPA and layer pairs that passed the inclusion test by kind.",
		}, []string{"kind"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Completed pipeline runs by status.",
		}, []string{"status"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_duration_seconds",
			Help: "Wall time of the most recent run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds",
			Help: "Unix time the most recent run finished.",
		}),
	}
	m.registry.MustRegister(
		m.geometryOps, m.geometryErrors, m.geometryDuration,
		m.layers, m.included, m.runs, m.runDuration, m.lastRun,
	)
	return m, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values in the text exposition format,
// for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// LayerProcessed records one aggregated layer and the number of MPAs it
// was included in.
func (m *Metrics) LayerProcessed(kind string, includedMPAs int) {
	m.layers.WithLabelValues(kind).Inc()
	m.included.WithLabelValues(kind).Add(float64(includedMPAs))
}

// RunFinished records the outcome of a run.
func (m *Metrics) RunFinished(err error, took time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(status).Inc()
	m.runDuration.Set(took.Seconds())
	m.lastRun.SetToCurrentTime()
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.geometryOps.WithLabelValues(op).Inc()
	m.geometryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		m.geometryErrors.WithLabelValues(op).Inc()
	}
}

// Engine wraps a geometry engine so every call is counted and timed.
func (m *Metrics) Engine(inner geo.Engine) geo.Engine {
	return &engine{inner: inner, m: m}
}

type engine struct {
	inner geo.Engine
	m     *Metrics
}

func (e *engine) Project(g orb.Geometry, from, to geo.CRS) (orb.Geometry, error) {
	start := time.Now()
	out, err := e.inner.Project(g, from, to)
	e.m.observe("project", start, err)
	return out, err
}

func (e *engine) Explode(g orb.Geometry) ([]orb.Polygon, error) {
	start := time.Now()
	out, err := e.inner.Explode(g)
	e.m.observe("explode", start, err)
	return out, err
}

func (e *engine) Shape(g orb.Geometry) (geo.Shape, error) {
	start := time.Now()
	out, err := e.inner.Shape(g)
	e.m.observe("shape", start, err)
	return out, err
}

func (e *engine) Overlay(left, right []geo.Shape) ([]geo.Overlap, error) {
	start := time.Now()
	out, err := e.inner.Overlay(left, right)
	e.m.observe("overlay", start, err)
	return out, err
}

func (e *engine) Merge(shapes ...geo.Shape) geo.Shape {
	start := time.Now()
	out := e.inner.Merge(shapes...)
	e.m.observe("merge", start, nil)
	return out
}

func (e *engine) Area(s geo.Shape) float64 {
	return e.inner.Area(s)
}
