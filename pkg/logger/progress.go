package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressConfig configures a ProgressTracker
type ProgressConfig struct {
	Operation string
	// Total is the expected count; zero means unknown.
	Total int64
	// LogInterval throttles progress lines. Defaults to five seconds.
	LogInterval time.Duration
	Logger      Logger
}

// ProgressTracker reports how far a long run of writes has got. Lines are
// throttled to one per interval whatever the update rate.
type ProgressTracker struct {
	mu       sync.Mutex
	log      Logger
	total    int64
	done     int64
	interval time.Duration
	started  time.Time
	lastLine time.Time
	now      func() time.Time
}

// Snapshot is the state of a tracker at one instant
type Snapshot struct {
	Total   int64         `json:"total"`
	Done    int64         `json:"done"`
	Elapsed time.Duration `json:"elapsed"`
}

// Percent is Done as a share of Total, or zero when Total is unknown
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Done) * 100 / float64(s.Total)
}

// PerSecond is the average throughput so far
func (s Snapshot) PerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Done) / s.Elapsed.Seconds()
}

func (s Snapshot) fields() Fields {
	fields := Fields{
		"done":    s.Done,
		"elapsed": s.Elapsed.Round(time.Millisecond).String(),
	}
	if s.Total > 0 {
		fields["total"] = s.Total
		fields["percent"] = fmt.Sprintf("%.1f", s.Percent())
	}
	return fields
}

// NewProgressTracker starts tracking and logs the opening line
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	log := config.Logger
	if log == nil {
		log = GetGlobalLogger()
	}
	interval := config.LogInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	t := &ProgressTracker{
		log:      log.WithField("operation", config.Operation),
		total:    config.Total,
		interval: interval,
		now:      time.Now,
	}
	t.started = t.now()
	t.lastLine = t.started

	t.log.WithField("total", config.Total).Info("Starting operation")
	return t
}

// Update records that done items are finished
func (t *ProgressTracker) Update(done int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done = done
	now := t.now()
	if now.Sub(t.lastLine) < t.interval {
		return
	}
	t.lastLine = now
	t.log.WithFields(t.snapshotAt(now).fields()).Info("Progress update")
}

// Snapshot returns the current counts
func (t *ProgressTracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotAt(t.now())
}

// Complete logs the closing line of a successful run
func (t *ProgressTracker) Complete() {
	snap := t.Snapshot()
	t.log.WithFields(snap.fields()).
		WithField("rate", fmt.Sprintf("%.2f/sec", snap.PerSecond())).
		Info("Operation completed")
}

// CompleteWithError logs the closing line of a run stopped by err
func (t *ProgressTracker) CompleteWithError(err error) {
	t.log.WithError(err).WithFields(t.Snapshot().fields()).Error("Operation stopped")
}

func (t *ProgressTracker) snapshotAt(now time.Time) Snapshot {
	return Snapshot{Total: t.total, Done: t.done, Elapsed: now.Sub(t.started)}
}
