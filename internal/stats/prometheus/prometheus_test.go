package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/kvcache/internal/stats"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found in registry", name)
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry != prometheus.DefaultRegisterer {
		t.Error("registry should default to prometheus.DefaultRegisterer")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricHits, 5)
	c.IncCounter(stats.MetricHits, 3)

	f := gather(t, reg, stats.MetricHits)
	if got := f.GetMetric()[0].GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
	if got := f.GetHelp(); got != help[stats.MetricHits] {
		t.Errorf("help = %q, want %q", got, help[stats.MetricHits])
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricHitRate, 0.25)
	c.SetGauge(stats.MetricHitRate, 0.75)

	f := gather(t, reg, stats.MetricHitRate)
	if got := f.GetMetric()[0].GetGauge().GetValue(); got != 0.75 {
		t.Errorf("gauge value = %v, want 0.75", got)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricEntrySize, 100)
	c.ObserveHistogram(stats.MetricEntrySize, 5000)

	h := gather(t, reg, stats.MetricEntrySize).GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("histogram count = %v, want 2", h.GetSampleCount())
	}
	if len(h.GetBucket()) != len(entrySizeBuckets) {
		t.Errorf("bucket count = %d, want %d", len(h.GetBucket()), len(entrySizeBuckets))
	}
}

func TestCollector_UnknownNameUsesNameAsHelp(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter("custom_total", 1)

	if got := gather(t, reg, "custom_total").GetHelp(); got != "custom_total" {
		t.Errorf("help = %q, want %q", got, "custom_total")
	}
}

func TestCollector_Concurrent(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter(stats.MetricSets, 1)
				c.SetGauge(stats.MetricEntries, float64(j))
			}
		}()
	}
	wg.Wait()

	if got := gather(t, reg, stats.MetricSets).GetMetric()[0].GetCounter().GetValue(); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: stats.MetricSets,
		Help: help[stats.MetricSets],
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter(stats.MetricSets, 5)

	if got := gather(t, reg, stats.MetricSets).GetMetric()[0].GetCounter().GetValue(); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}
