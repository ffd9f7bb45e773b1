package pipeline

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// latencyWindow is how many recent detect latencies the stats keep.
const latencyWindow = 100

// Stats counts what happened to each tick of a run.
type Stats struct {
	Ticks     uint64 `json:"ticks"`     // ticker fires
	Completed uint64 `json:"completed"` // ticks that published a snapshot
	Dropped   uint64 `json:"dropped"`   // fired while the previous tick was in flight
	Skipped   uint64 `json:"skipped"`   // no frame ready
	Failed    uint64 `json:"failed"`    // detect error or recovered panic

	DetectorReady bool `json:"detector_ready"` // false while running without a model

	// Detect latency over the recent window, in milliseconds
	DetectMeanMS   float64 `json:"detect_mean_ms"`
	DetectStdDevMS float64 `json:"detect_stddev_ms"`
}

type recorder struct {
	mu        sync.Mutex
	stats     Stats
	latencies []float64
	next      int
}

func (r *recorder) update(fn func(*Stats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

func (r *recorder) observeDetect(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.latencies) < latencyWindow {
		r.latencies = append(r.latencies, ms)
	} else {
		r.latencies[r.next] = ms
		r.next = (r.next + 1) % latencyWindow
	}
}

func (r *recorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.stats
	switch len(r.latencies) {
	case 0:
	case 1:
		s.DetectMeanMS = r.latencies[0]
	default:
		s.DetectMeanMS, s.DetectStdDevMS = stat.MeanStdDev(r.latencies, nil)
	}
	return s
}
