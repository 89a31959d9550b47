package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is what the pipeline reports into. A nil *Prom is a no-op.
type Recorder interface {
	Run(outcome string, d time.Duration)
	Coerced(n int)
	LooseMatches(n int)
	Wasted(spend float64)
}

type Prom struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	coerced  prometheus.Counter
	loose    prometheus.Counter
	wasted   prometheus.Histogram
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adreport",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "adreport",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of one pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		coerced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adreport",
			Name:      "coerced_cells_total",
			Help:      "Numeric cells that failed to parse and were summed as zero.",
		}),
		loose: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adreport",
			Name:      "loose_column_matches_total",
			Help:      "Columns resolved by substring or first-column fallback.",
		}),
		wasted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "adreport",
			Name:      "wasted_spend",
			Help:      "Total wasted spend per analyzed report.",
			Buckets:   prometheus.ExponentialBuckets(1000, 10, 7),
		}),
	}
	if reg != nil {
		reg.MustRegister(p.runs, p.duration, p.coerced, p.loose, p.wasted)
	}
	return p
}

func (p *Prom) Run(outcome string, d time.Duration) {
	if p == nil {
		return
	}
	p.runs.WithLabelValues(outcome).Inc()
	p.duration.Observe(d.Seconds())
}

func (p *Prom) Coerced(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.coerced.Add(float64(n))
}

func (p *Prom) LooseMatches(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.loose.Add(float64(n))
}

func (p *Prom) Wasted(spend float64) {
	if p == nil {
		return
	}
	p.wasted.Observe(spend)
}
