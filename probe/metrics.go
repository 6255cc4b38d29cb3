package probe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hazyhaar/streamprobe/probe/result"
)

var (
	// ProbesTotal counts finished probes by provider and final status.
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamprobe_probes_total",
			Help: "Total number of finished provider probes",
		},
		[]string{"provider", "status"},
	)

	// ProbeDuration tracks how long one probe holds its page.
	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamprobe_probe_duration_seconds",
			Help:    "Duration of a single provider probe in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 90, 120, 150, 180, 240},
		},
		[]string{"status"},
	)

	// ProviderScore is the latest score of each provider.
	ProviderScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamprobe_provider_score",
			Help: "Latest quality score per provider (0-100)",
		},
		[]string{"provider"},
	)

	// PlaybackRatio is the latest sampled playback ratio of each provider.
	PlaybackRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamprobe_playback_ratio",
			Help: "Latest sampled playback ratio per provider",
		},
		[]string{"provider"},
	)

	// BlockedRequestsTotal counts requests aborted by the ad blocklist.
	BlockedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamprobe_blocked_requests_total",
			Help: "Total number of requests aborted by the blocklist",
		},
		[]string{"provider"},
	)

	// RunsTotal counts runs by outcome (complete, truncated).
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamprobe_runs_total",
			Help: "Total number of probe runs",
		},
		[]string{"outcome"},
	)

	// RunDuration tracks whole-run wall time.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamprobe_run_duration_seconds",
			Help:    "Duration of a full probe run in seconds",
			Buckets: prometheus.ExponentialBuckets(30, 2, 7),
		},
	)
)

func observeProbe(r result.ProbeResult, seconds float64) {
	ProbesTotal.WithLabelValues(r.TargetName, string(r.Status)).Inc()
	ProbeDuration.WithLabelValues(string(r.Status)).Observe(seconds)
	ProviderScore.WithLabelValues(r.TargetName).Set(r.Score)
	if r.Sampled {
		PlaybackRatio.WithLabelValues(r.TargetName).Set(r.PlaybackRatio)
	}
	if r.BlockedRequests > 0 {
		BlockedRequestsTotal.WithLabelValues(r.TargetName).Add(float64(r.BlockedRequests))
	}
}
