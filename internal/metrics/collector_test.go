package radiometrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	radiometrics "github.com/dantte-lp/godash7/internal/metrics"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiometrics.NewCollector(reg)

	if c.FramesSent == nil {
		t.Error("FramesSent is nil")
	}
	if c.FramesReceived == nil {
		t.Error("FramesReceived is nil")
	}
	if c.FramesDropped == nil {
		t.Error("FramesDropped is nil")
	}
	if c.CCAFailures == nil {
		t.Error("CCAFailures is nil")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	_ = families // no data yet, but registration must not panic
}

func TestFramesSentAndReceived(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiometrics.NewCollector(reg)

	c.IncFramesSent(4)
	c.IncFramesSent(4)
	c.IncFramesSent(4)

	if val := counterValue(t, c.FramesSent, "04"); val != 3 {
		t.Errorf("FramesSent(channel 4) = %v, want 3", val)
	}

	c.IncFramesReceived(7)
	c.IncFramesReceived(7)

	if val := counterValue(t, c.FramesReceived, "07"); val != 2 {
		t.Errorf("FramesReceived(channel 7) = %v, want 2", val)
	}
}

func TestFramesDroppedByReason(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiometrics.NewCollector(reg)

	c.IncFramesDropped(1, "untuned_channel")
	c.IncFramesDropped(1, "untuned_channel")
	c.IncFramesDropped(1, "decode")

	if val := counterValue(t, c.FramesDropped, "01", "untuned_channel"); val != 2 {
		t.Errorf("FramesDropped(channel 1, untuned_channel) = %v, want 2", val)
	}
	if val := counterValue(t, c.FramesDropped, "01", "decode"); val != 1 {
		t.Errorf("FramesDropped(channel 1, decode) = %v, want 1", val)
	}
}

func TestCCAFailures(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := radiometrics.NewCollector(reg)

	c.IncCCAFailures(2)
	c.IncCCAFailures(2)

	if val := counterValue(t, c.CCAFailures, "02"); val != 2 {
		t.Errorf("CCAFailures(channel 2) = %v, want 2", val)
	}
}

// counterValue reads the current value of a CounterVec with the given labels.
func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}
