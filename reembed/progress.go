package reembed

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/talentmatch/progress"
)

// ProgressReporter renders a progress.Tracker stage as a single updating
// terminal line.
type ProgressReporter struct {
	writer         io.Writer
	label          string
	total          int
	reportInterval int

	mu           sync.Mutex
	tracker      *progress.Tracker
	current      int
	lastReported int
	startTime    time.Time
}

// NewProgressReporter creates a reporter for total records of one kind,
// printing every reportInterval records.
func NewProgressReporter(writer io.Writer, label string, total, reportInterval int) *ProgressReporter {
	return &ProgressReporter{
		writer:         writer,
		label:          label,
		total:          total,
		reportInterval: max(1, reportInterval),
	}
}

// Start opens the vector generation stage. Calls before Start are ignored.
func (p *ProgressReporter) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker = progress.NewTracker("reembed-"+p.label, 1, slog.Default().With("kind", p.label))
	p.tracker.StartStage(progress.StageVectorGeneration, p.total, "reembedding "+p.label+" records")
	p.startTime = time.Now()
	p.current = 0
	p.lastReported = 0
}

// Tracker returns the underlying tracker, or nil before Start.
func (p *ProgressReporter) Tracker() *progress.Tracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker
}

// Update sets the number of processed records.
func (p *ProgressReporter) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(current)
}

// Increment adds delta processed records.
func (p *ProgressReporter) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(p.current + delta)
}

// advance must be called with lock held.
func (p *ProgressReporter) advance(current int) {
	if p.tracker == nil {
		return
	}
	info := p.tracker.UpdateProgress(progress.StageVectorGeneration, current, "")
	p.current = info.Current
	if p.current-p.lastReported >= p.reportInterval {
		p.report(info)
		p.lastReported = p.current
	}
}

// Finish completes the stage and ends the line.
func (p *ProgressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracker == nil {
		return
	}
	info, _ := p.tracker.CompleteStage(progress.StageVectorGeneration, "done")
	p.current = info.Current
	p.report(info)
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start.
func (p *ProgressReporter) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracker == nil {
		return 0
	}
	return time.Since(p.startTime)
}

// report must be called with lock held.
func (p *ProgressReporter) report(info progress.Info) {
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(info.Current) / elapsed
	}

	fmt.Fprintf(p.writer, "\r%s: %d/%d (%.1f%%) - %.1f records/s",
		p.label, info.Current, info.Total, info.Percentage(), rate)
	if eta, ok := info.ETA(); ok && info.Current < info.Total {
		fmt.Fprintf(p.writer, ", eta %s", eta.Round(time.Second))
	}
}
