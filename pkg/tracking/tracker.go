// Package tracking selects the single tracked subject from a detection list
// and keeps the previous sighting used for motion differencing.
package tracking

import (
	"sync"

	"github.com/teslashibe/go-mimic/pkg/tracking/detection"
)

// Subject is the tracker's view of the subject after a tick.
// Current is nil when no subject was found this tick; Previous is nil until
// a subject has been seen on an earlier tick.
type Subject struct {
	Current  *detection.Detection `json:"current,omitempty"`
	Previous *detection.Detection `json:"previous,omitempty"`
}

// Present reports whether a subject was found on the latest tick.
func (s Subject) Present() bool {
	return s.Current != nil
}

// SelectSubject returns the first detection, in list order, whose class is
// class and whose score exceeds minScore. Equal-scoring candidates resolve
// to whichever the detector listed first.
func SelectSubject(dets []detection.Detection, class string, minScore float64) (detection.Detection, bool) {
	for _, d := range dets {
		if d.Class == class && d.Score > minScore {
			return d, true
		}
	}
	return detection.Detection{}, false
}

// Tracker owns the subject state. Update is the only mutator.
type Tracker struct {
	config Config

	mu      sync.RWMutex
	subject Subject
	last    *detection.Detection // most recent sighting on any tick
	misses  int                  // consecutive ticks without a subject
}

// New creates a tracker
func New(config Config) *Tracker {
	if config.Class == "" {
		config.Class = detection.PersonClass
	}
	if config.MinScore == 0 {
		config.MinScore = detection.MinScore
	}
	return &Tracker{config: config}
}

// Update applies one tick's detections and returns the new subject state.
//
// When a subject is found, Previous becomes the last sighting (from
// whichever earlier tick had one) and Current the new detection. When none
// is found, Current is cleared and Previous is kept.
func (t *Tracker) Update(dets []detection.Detection) Subject {
	t.mu.Lock()
	defer t.mu.Unlock()

	found, ok := SelectSubject(dets, t.config.Class, t.config.MinScore)
	if !ok {
		t.misses++
		t.subject.Current = nil
		if t.config.ResetBaselineAfter > 0 && t.misses >= t.config.ResetBaselineAfter {
			t.last = nil
			t.subject.Previous = nil
		}
		return t.subject
	}

	t.misses = 0
	t.subject.Previous = t.last
	t.subject.Current = &found
	t.last = &found
	return t.subject
}

// Subject returns the state produced by the latest Update.
func (t *Tracker) Subject() Subject {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.subject
}

// Misses returns how many consecutive ticks have had no subject
func (t *Tracker) Misses() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.misses
}

// Reset forgets the subject and the baseline. Used when the capture is
// reconfigured and old pixel coordinates no longer apply.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subject = Subject{}
	t.last = nil
	t.misses = 0
}
