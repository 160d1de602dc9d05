package metrics

import "github.com/prometheus/client_golang/prometheus"

// WatcherMetrics exposes counters/histograms for the check-cycle flow.
type WatcherMetrics struct {
	cyclesTotal    *prometheus.CounterVec
	scrapeAttempts *prometheus.CounterVec
	emailsTotal    *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
}

func NewWatcherMetrics(reg prometheus.Registerer) *WatcherMetrics {
	m := &WatcherMetrics{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotwatch",
			Subsystem: "service",
			Name:      "cycles_total",
			Help:      "Total check cycles by outcome",
		}, []string{"outcome"}),
		scrapeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotwatch",
			Subsystem: "scraper",
			Name:      "attempts_total",
			Help:      "Total scrape attempts by status",
		}, []string{"status"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotwatch",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Total alert email dispatches by status",
		}, []string{"status"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "slotwatch",
			Subsystem: "service",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one scrape-classify-notify cycle",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.cyclesTotal, m.scrapeAttempts, m.emailsTotal, m.cycleDuration)
	return m
}

func (m *WatcherMetrics) ObserveCycle(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.cyclesTotal.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(seconds)
}

func (m *WatcherMetrics) ObserveScrapeAttempt(status string) {
	if m == nil {
		return
	}
	m.scrapeAttempts.WithLabelValues(status).Inc()
}

func (m *WatcherMetrics) ObserveEmail(status string) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(status).Inc()
}
