// Package metrics keeps in-process counters for the overlay.
//
// Metrics are dumped on exit in Prometheus text format or JSON. There is no
// scrape endpoint.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType represents the type of metric.
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels are constant labels attached to a metric.
type Labels map[string]string

// String renders labels as {k="v",...} with sorted keys.
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	parts := make([]string, 0, len(l))
	for _, k := range slices.Sorted(maps.Keys(l)) {
		parts = append(parts, fmt.Sprintf("%s=%q", k, l[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// with appends one more label, for histogram buckets.
func (l Labels) with(key, value string) string {
	s := l.String()
	extra := fmt.Sprintf("%s=%q", key, value)
	if s == "" {
		return "{" + extra + "}"
	}
	return s[:len(s)-1] + "," + extra + "}"
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name   string
	help   string
	labels Labels
	value  atomic.Uint64
}

// NewCounter creates a new Counter.
func NewCounter(name, help string, labels Labels) *Counter {
	return &Counter{name: name, help: help, labels: labels}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add adds v to the counter.
func (c *Counter) Add(v uint64) { c.value.Add(v) }

// Value returns the current value.
func (c *Counter) Value() uint64 { return c.value.Load() }

// Name returns the metric name.
func (c *Counter) Name() string { return c.name }

// Gauge is a value that can go up and down.
type Gauge struct {
	name   string
	help   string
	labels Labels
	value  atomic.Int64
}

// NewGauge creates a new Gauge.
func NewGauge(name, help string, labels Labels) *Gauge {
	return &Gauge{name: name, help: help, labels: labels}
}

// Set sets the gauge to v.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Add adds v to the gauge.
func (g *Gauge) Add(v int64) { g.value.Add(v) }

// Value returns the current value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Name returns the metric name.
func (g *Gauge) Name() string { return g.name }

// Histogram tracks the distribution of values. Buckets are upper bounds;
// counts are stored per bucket and made cumulative on output.
type Histogram struct {
	name    string
	help    string
	labels  Labels
	buckets []float64

	mu     sync.Mutex
	counts []uint64
	sum    float64
	count  uint64
}

// TickBuckets cover timer periods from 1ms to 1s, in seconds.
var TickBuckets = []float64{
	0.001, 0.005, 0.010, 0.015, 0.017, 0.020, 0.025, 0.033, 0.050, 0.100, 0.250, 1,
}

// NewHistogram creates a new Histogram. A nil buckets slice uses TickBuckets.
func NewHistogram(name, help string, labels Labels, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = TickBuckets
	}
	sorted := slices.Clone(buckets)
	sort.Float64s(sorted)

	return &Histogram{
		name:    name,
		help:    help,
		labels:  labels,
		buckets: sorted,
		counts:  make([]uint64, len(sorted)+1), // last is +Inf
	}
}

// Observe records a value.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sum += v
	h.count++
	h.counts[sort.SearchFloat64s(h.buckets, v)]++
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Seconds())
}

// Name returns the metric name.
func (h *Histogram) Name() string { return h.name }

// Count returns the number of observations.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Sum returns the sum of observed values.
func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

// cumulative returns the running bucket totals, +Inf last. Caller holds mu.
func (h *Histogram) cumulative() []uint64 {
	out := make([]uint64, len(h.counts))
	var total uint64
	for i, c := range h.counts {
		total += c
		out[i] = total
	}
	return out
}

// Registry holds all registered metrics.
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram

	namespace string
}

// NewRegistry creates a registry whose metric names are prefixed with
// namespace and an underscore.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
		namespace:  namespace,
	}
}

func (r *Registry) fullName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// RegisterCounter registers a counter, or returns the existing one.
func (r *Registry) RegisterCounter(name, help string, labels Labels) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	if c, ok := r.counters[full]; ok {
		return c
	}
	c := NewCounter(full, help, labels)
	r.counters[full] = c
	return c
}

// RegisterGauge registers a gauge, or returns the existing one.
func (r *Registry) RegisterGauge(name, help string, labels Labels) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	if g, ok := r.gauges[full]; ok {
		return g
	}
	g := NewGauge(full, help, labels)
	r.gauges[full] = g
	return g
}

// RegisterHistogram registers a histogram, or returns the existing one.
func (r *Registry) RegisterHistogram(name, help string, labels Labels, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.fullName(name)
	if h, ok := r.histograms[full]; ok {
		return h
	}
	h := NewHistogram(full, help, labels, buckets)
	r.histograms[full] = h
	return h
}

// WritePrometheus writes all metrics in Prometheus text format, sorted by
// name within each type.
func (r *Registry) WritePrometheus(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(r.counters)) {
		c := r.counters[name]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n", name, c.help, name)
		fmt.Fprintf(&b, "%s%s %d\n", name, c.labels, c.Value())
	}
	for _, name := range slices.Sorted(maps.Keys(r.gauges)) {
		g := r.gauges[name]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n", name, g.help, name)
		fmt.Fprintf(&b, "%s%s %d\n", name, g.labels, g.Value())
	}
	for _, name := range slices.Sorted(maps.Keys(r.histograms)) {
		h := r.histograms[name]
		h.mu.Lock()
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s histogram\n", name, h.help, name)
		cum := h.cumulative()
		for i, upper := range h.buckets {
			fmt.Fprintf(&b, "%s_bucket%s %d\n", name, h.labels.with("le", fmt.Sprintf("%g", upper)), cum[i])
		}
		fmt.Fprintf(&b, "%s_bucket%s %d\n", name, h.labels.with("le", "+Inf"), cum[len(cum)-1])
		fmt.Fprintf(&b, "%s_sum%s %g\n", name, h.labels, h.sum)
		fmt.Fprintf(&b, "%s_count%s %d\n", name, h.labels, h.count)
		h.mu.Unlock()
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON writes all metrics as one indented JSON object keyed by name.
func (r *Registry) WriteJSON(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any, len(r.counters)+len(r.gauges)+len(r.histograms))
	for name, c := range r.counters {
		out[name] = map[string]any{
			"type":   TypeCounter.String(),
			"help":   c.help,
			"labels": c.labels,
			"value":  c.Value(),
		}
	}
	for name, g := range r.gauges {
		out[name] = map[string]any{
			"type":   TypeGauge.String(),
			"help":   g.help,
			"labels": g.labels,
			"value":  g.Value(),
		}
	}
	for name, h := range r.histograms {
		h.mu.Lock()
		cum := h.cumulative()
		buckets := make(map[string]uint64, len(cum))
		for i, upper := range h.buckets {
			buckets[fmt.Sprintf("%g", upper)] = cum[i]
		}
		buckets["+Inf"] = cum[len(cum)-1]
		out[name] = map[string]any{
			"type":    TypeHistogram.String(),
			"help":    h.help,
			"labels":  h.labels,
			"buckets": buckets,
			"sum":     h.sum,
			"count":   h.count,
		}
		h.mu.Unlock()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Format names a dump format for Write.
type Format string

const (
	FormatPrometheus Format = "prometheus"
	FormatJSON       Format = "json"
)

// ParseFormat parses "prometheus" (or "text") and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "prometheus", "text":
		return FormatPrometheus, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown metrics format: %s", s)
	}
}

// Write dumps every metric to w in format f.
func (r *Registry) Write(w io.Writer, f Format) error {
	if f == FormatJSON {
		return r.WriteJSON(w)
	}
	return r.WritePrometheus(w)
}
