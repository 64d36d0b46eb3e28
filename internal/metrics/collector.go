// Package radiometrics holds the daemon-level Prometheus metrics for
// the software radio simulator (internal/radio): frame counters at the
// transport boundary, distinct from internal/mac.Metrics's
// dispatcher-level counters.
package radiometrics

import "github.com/prometheus/client_golang/prometheus"

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "godash7"
	subsystem = "radio"
)

// Label names for radio metrics.
const (
	labelChannel = "channel"
	labelReason  = "reason"
)

// -------------------------------------------------------------------------
// Collector — Prometheus radio-simulator metrics
// -------------------------------------------------------------------------

// Collector holds all radio-simulator Prometheus metrics.
//
//   - FramesSent/FramesReceived track over-the-air volume per channel.
//   - FramesDropped counts inbound frames discarded by reason; the
//     radio driver records "untuned_channel" (killed, not listening, or
//     tuned elsewhere). Decode failures and echoes of our own sends are
//     discarded without being counted.
//   - CCAFailures counts TxCSMA clear-channel-assessment failures per
//     channel, feeding the same signal internal/mac.Metrics.CSMARetries
//     tracks from the dispatcher side.
type Collector struct {
	FramesSent     *prometheus.CounterVec
	FramesReceived *prometheus.CounterVec
	FramesDropped  *prometheus.CounterVec
	CCAFailures    *prometheus.CounterVec
}

// NewCollector creates a Collector with all radio metrics registered
// against reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.FramesSent,
		c.FramesReceived,
		c.FramesDropped,
		c.CCAFailures,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	channelLabels := []string{labelChannel}
	dropLabels := []string{labelChannel, labelReason}

	return &Collector{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_sent_total",
			Help:      "Total simulated over-the-air frames transmitted, by channel.",
		}, channelLabels),

		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_received_total",
			Help:      "Total simulated over-the-air frames accepted and dispatched, by channel.",
		}, channelLabels),

		FramesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "frames_dropped_total",
			Help:      "Total inbound datagrams that never reached a dispatch, by channel and reason.",
		}, dropLabels),

		CCAFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cca_failures_total",
			Help:      "Total TxCSMA clear-channel-assessment failures, by channel.",
		}, channelLabels),
	}
}

// -------------------------------------------------------------------------
// Recording helpers
// -------------------------------------------------------------------------

func channelLabel(channel uint8) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[channel>>4], hexDigits[channel&0xF]})
}

// IncFramesSent records one transmitted frame on channel.
func (c *Collector) IncFramesSent(channel uint8) {
	c.FramesSent.WithLabelValues(channelLabel(channel)).Inc()
}

// IncFramesReceived records one accepted-and-dispatched frame on channel.
func (c *Collector) IncFramesReceived(channel uint8) {
	c.FramesReceived.WithLabelValues(channelLabel(channel)).Inc()
}

// IncFramesDropped records one discarded inbound datagram on channel,
// labeled with why it was discarded.
func (c *Collector) IncFramesDropped(channel uint8, reason string) {
	c.FramesDropped.WithLabelValues(channelLabel(channel), reason).Inc()
}

// IncCCAFailures records one clear-channel-assessment failure on channel.
func (c *Collector) IncCCAFailures(channel uint8) {
	c.CCAFailures.WithLabelValues(channelLabel(channel)).Inc()
}
