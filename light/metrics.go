package light

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this package.
	MetricsSubsystem = "light"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of next-block evidences accepted.
	AcceptedBlocks metrics.Counter
	// Number of next-block evidences rejected, labelled by reason.
	RejectedBlocks metrics.Counter
	// Number of epoch boundaries crossed.
	EpochChanges metrics.Counter
	// Number of inclusion proofs accepted.
	VerifiedProofs metrics.Counter
	// Number of inclusion proofs rejected, labelled by reason.
	RejectedProofs metrics.Counter
	// Height of the trusted header.
	TrustedHeight metrics.Gauge
	// Share of the stake that approved the last accepted block.
	ApprovedStakeRatio metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		AcceptedBlocks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "accepted_blocks",
			Help:      "Number of next block evidences accepted.",
		}, labels).With(labelsAndValues...),
		RejectedBlocks: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejected_blocks",
			Help:      "Number of next block evidences rejected.",
		}, append(labels, "reason")).With(labelsAndValues...),
		EpochChanges: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "epoch_changes",
			Help:      "Number of epoch boundaries crossed by the trusted header.",
		}, labels).With(labelsAndValues...),
		VerifiedProofs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "verified_proofs",
			Help:      "Number of inclusion proofs accepted.",
		}, labels).With(labelsAndValues...),
		RejectedProofs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejected_proofs",
			Help:      "Number of inclusion proofs rejected.",
		}, append(labels, "reason")).With(labelsAndValues...),
		TrustedHeight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "trusted_height",
			Help:      "Height of the trusted header.",
		}, labels).With(labelsAndValues...),
		ApprovedStakeRatio: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "approved_stake_ratio",
			Help:      "Share of the stake that approved the last accepted block.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		AcceptedBlocks:     discard.NewCounter(),
		RejectedBlocks:     discard.NewCounter(),
		EpochChanges:       discard.NewCounter(),
		VerifiedProofs:     discard.NewCounter(),
		RejectedProofs:     discard.NewCounter(),
		TrustedHeight:      discard.NewGauge(),
		ApprovedStakeRatio: discard.NewGauge(),
	}
}
