// Package simulation drives synthetic workloads against a cache.
package simulation

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/discochess/kvcache"
)

// Workload describes a synthetic request mix.
type Workload struct {
	// Ops is the total number of operations to issue.
	Ops int

	// Keys is the size of the key space.
	Keys int

	// ValueSize is the length of each stored string value.
	ValueSize int

	// ReadRatio is the fraction of operations that are reads, in [0, 1].
	ReadRatio float64

	// Skew is the Zipf exponent for key popularity. Values <= 1 select keys uniformly.
	Skew float64

	// TTL applied to writes. Zero uses the cache default.
	TTL time.Duration

	// Seed makes runs reproducible.
	Seed int64
}

// Validate reports whether the workload can be run.
func (w Workload) Validate() error {
	switch {
	case w.Ops <= 0:
		return fmt.Errorf("ops must be positive, got %d", w.Ops)
	case w.Keys <= 0:
		return fmt.Errorf("keys must be positive, got %d", w.Keys)
	case w.ValueSize < 0:
		return fmt.Errorf("value size must not be negative, got %d", w.ValueSize)
	case w.ReadRatio < 0 || w.ReadRatio > 1:
		return fmt.Errorf("read ratio must be within [0, 1], got %v", w.ReadRatio)
	}
	return nil
}

// Result holds the raw measurements of a run.
type Result struct {
	Reads   int
	Writes  int
	Hits    int
	Elapsed time.Duration

	// Per-operation latencies in microseconds.
	ReadLatencies  []float64
	WriteLatencies []float64

	// Stats is the cache snapshot taken after the run.
	Stats kvcache.Stats
}

// HitRate returns the fraction of reads that hit.
func (r *Result) HitRate() float64 {
	if r.Reads == 0 {
		return 0
	}
	return float64(r.Hits) / float64(r.Reads)
}

// Run issues w against c and records latencies.
func Run(c *kvcache.Cache, w Workload) (*Result, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(w.Seed))
	next := keyPicker(rng, w)
	value := strings.Repeat("x", w.ValueSize)

	res := &Result{
		ReadLatencies:  make([]float64, 0, int(float64(w.Ops)*w.ReadRatio)+1),
		WriteLatencies: make([]float64, 0, int(float64(w.Ops)*(1-w.ReadRatio))+1),
	}

	start := time.Now()
	for i := 0; i < w.Ops; i++ {
		key := fmt.Sprintf("key-%d", next())

		if rng.Float64() < w.ReadRatio {
			t := time.Now()
			_, ok := c.Get(key)
			res.ReadLatencies = append(res.ReadLatencies, micros(time.Since(t)))
			res.Reads++
			if ok {
				res.Hits++
			}
			continue
		}

		t := time.Now()
		if w.TTL > 0 {
			c.SetWithTTL(key, value, w.TTL)
		} else {
			c.Set(key, value)
		}
		res.WriteLatencies = append(res.WriteLatencies, micros(time.Since(t)))
		res.Writes++
	}
	res.Elapsed = time.Since(start)
	res.Stats = c.Stats()

	return res, nil
}

func keyPicker(rng *rand.Rand, w Workload) func() uint64 {
	if w.Skew > 1 && w.Keys > 1 {
		z := rand.NewZipf(rng, w.Skew, 1, uint64(w.Keys-1))
		return z.Uint64
	}
	n := int64(w.Keys)
	return func() uint64 { return uint64(rng.Int63n(n)) }
}

func micros(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e3
}
