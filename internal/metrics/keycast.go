package metrics

// Namespace prefixes every overlay metric.
const Namespace = "keycast"

// OverlayMetrics are the metrics updated by the overlay state.
type OverlayMetrics struct {
	registry *Registry

	CombosPushed      *Counter
	EventsDiscarded   *Counter
	HistoryOverflows  *Counter
	HistoryResets     *Counter
	VisibilityToggles *Counter

	HistoryDepth *Gauge

	TickInterval *Histogram
}

// NewOverlayMetrics registers the overlay metrics in registry. A nil
// registry gets a fresh one.
func NewOverlayMetrics(registry *Registry) *OverlayMetrics {
	if registry == nil {
		registry = NewRegistry(Namespace)
	}
	return &OverlayMetrics{
		registry: registry,

		CombosPushed: registry.RegisterCounter(
			"combos_pushed_total",
			"Combos recorded into the history",
			nil,
		),
		EventsDiscarded: registry.RegisterCounter(
			"events_discarded_total",
			"Key releases without a displayable glyph",
			nil,
		),
		HistoryOverflows: registry.RegisterCounter(
			"history_overflows_total",
			"Pushes that evicted the oldest combo",
			nil,
		),
		HistoryResets: registry.RegisterCounter(
			"history_resets_total",
			"History clears after fade-out or reconfiguration",
			nil,
		),
		VisibilityToggles: registry.RegisterCounter(
			"visibility_toggles_total",
			"Overlay visibility toggles",
			nil,
		),
		HistoryDepth: registry.RegisterGauge(
			"history_depth",
			"Combos currently held in the history",
			nil,
		),
		TickInterval: registry.RegisterHistogram(
			"tick_interval_seconds",
			"Actual time between fade timer ticks",
			nil,
			TickBuckets,
		),
	}
}

// Registry returns the registry the metrics live in.
func (m *OverlayMetrics) Registry() *Registry {
	return m.registry
}
