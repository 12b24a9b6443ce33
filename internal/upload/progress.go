package upload

import (
	"sync"
	"time"
)

// RampDuration is the elapsed time at which the progress heuristic reaches 100
const RampDuration = 10 * time.Second

// DefaultInterval is how often the tracker recomputes progress
const DefaultInterval = 500 * time.Millisecond

// Progress maps elapsed upload time onto 0..100. It is a cosmetic ramp, not
// a measure of work done.
func Progress(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed.Milliseconds()) / float64(RampDuration.Milliseconds()) * 100
	if p > 100 {
		return 100
	}
	return p
}

// Phase values reported in snapshots
const (
	PhaseIdle      = "idle"
	PhaseUploading = "uploading"
	PhaseComplete  = "complete"
	PhaseFailed    = "failed"
)

// Snapshot is one progress observation
type Snapshot struct {
	Phase     string  `json:"phase"`
	Percent   float64 `json:"percent"`
	ElapsedMs int64   `json:"elapsed_ms"`
	Done      bool    `json:"done"`
}

// Tracker recomputes upload progress on a fixed interval and fans
// snapshots out to subscribers. Slow subscribers miss intermediate ticks.
type Tracker struct {
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	start    time.Time
	current  Snapshot
	subs     map[chan Snapshot]struct{}
	observer func(Snapshot)
	started  bool
	finished bool

	stop chan struct{}
	done chan struct{}
}

// NewTracker creates an idle tracker
func NewTracker(interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		interval: interval,
		now:      time.Now,
		current:  Snapshot{Phase: PhaseIdle},
		subs:     make(map[chan Snapshot]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// OnUpdate registers a callback invoked with every snapshot, including the
// final one. It must not block.
func (t *Tracker) OnUpdate(fn func(Snapshot)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observer = fn
}

// Start begins ticking. Calling it twice has no effect.
func (t *Tracker) Start() {
	t.mu.Lock()
	if t.started || t.finished {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.start = t.now()
	t.current = Snapshot{Phase: PhaseUploading}
	t.mu.Unlock()

	t.broadcast(t.Current())
	go t.run()
}

func (t *Tracker) run() {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.finished {
				t.mu.Unlock()
				return
			}
			elapsed := t.now().Sub(t.start)
			t.current = Snapshot{
				Phase:     PhaseUploading,
				Percent:   Progress(elapsed),
				ElapsedMs: elapsed.Milliseconds(),
			}
			snap := t.current
			t.mu.Unlock()
			t.broadcast(snap)
		}
	}
}

// Complete forces progress to 100 and stops the ticker
func (t *Tracker) Complete() Snapshot {
	return t.finish(PhaseComplete, true)
}

// Fail stops the ticker, leaving progress at its last value
func (t *Tracker) Fail() Snapshot {
	return t.finish(PhaseFailed, false)
}

func (t *Tracker) finish(phase string, full bool) Snapshot {
	t.mu.Lock()
	if t.finished {
		snap := t.current
		t.mu.Unlock()
		return snap
	}
	t.finished = true
	started := t.started

	snap := t.current
	snap.Phase = phase
	snap.Done = true
	if started {
		snap.ElapsedMs = t.now().Sub(t.start).Milliseconds()
	}
	if full {
		snap.Percent = 100
	}
	t.current = snap
	close(t.stop)
	t.mu.Unlock()

	if started {
		<-t.done
	}

	t.mu.Lock()
	subs := t.subs
	t.subs = make(map[chan Snapshot]struct{})
	observer := t.observer
	t.mu.Unlock()

	if observer != nil {
		observer(snap)
	}

	for ch := range subs {
		deliver(ch, snap)
		close(ch)
	}
	return snap
}

// Current returns the latest snapshot
func (t *Tracker) Current() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Subscribe registers an observer. The channel receives the current
// snapshot immediately and is closed after the final one. The returned
// func unsubscribes.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 4)

	t.mu.Lock()
	ch <- t.current
	if t.finished {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if _, ok := t.subs[ch]; ok {
				delete(t.subs, ch)
				close(ch)
			}
		})
	}
}

func (t *Tracker) broadcast(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for ch := range t.subs {
		deliver(ch, snap)
	}
	if t.observer != nil {
		t.observer(snap)
	}
}

// deliver replaces the oldest pending snapshot when the buffer is full so
// the newest value always gets through.
func deliver(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}
