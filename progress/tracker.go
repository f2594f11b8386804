// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package progress tracks per-session, per-stage progress of matching runs.
//
// A Tracker belongs to one session and is safe for concurrent use. A Manager
// owns the trackers of every live session; there is no package-level state
// besides the clock used by tests.
package progress

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// Stage names a processing phase.
type Stage string

const (
	StageInitialization   Stage = "initialization"
	StageClassification   Stage = "classification"
	StageExtraction       Stage = "extraction"
	StageVectorGeneration Stage = "vector_generation"
	StageStorage          Stage = "storage"
	StageFiltering        Stage = "filtering"
	StageMatching         Stage = "matching"
	StageResultGeneration Stage = "result_generation"
	StageCompletion       Stage = "completion"
)

// Status is the lifecycle state of a stage.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusCompleted
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusErrored:
		return "errored"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText renders the status name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Info is a snapshot of one stage.
type Info struct {
	Stage     Stage          `json:"stage"`
	Current   int            `json:"current"`
	Total     int            `json:"total"`
	Message   string         `json:"message,omitempty"`
	StartTime time.Time      `json:"start_time"`
	UpdatedAt time.Time      `json:"updated_at"`
	Status    Status         `json:"status"`
	Err       string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Percentage is Current/Total as 0..100. A completed stage with no items is 100.
func (i Info) Percentage() float64 {
	if i.Total <= 0 {
		if i.Status == StatusCompleted {
			return 100
		}
		return 0
	}
	return float64(i.Current) / float64(i.Total) * 100
}

// Elapsed is the time since the stage started, as of the last update.
func (i Info) Elapsed() time.Duration {
	if i.StartTime.IsZero() {
		return 0
	}
	return i.UpdatedAt.Sub(i.StartTime)
}

// ETA estimates the remaining time from the average time per finished item.
// ok is false until at least one item has finished.
func (i Info) ETA() (eta time.Duration, ok bool) {
	if i.Current <= 0 {
		return 0, false
	}
	if i.Current >= i.Total {
		return 0, true
	}
	perItem := i.Elapsed() / time.Duration(i.Current)
	return perItem * time.Duration(i.Total-i.Current), true
}

func (i *Info) clone() Info {
	c := *i
	if i.Metadata != nil {
		c.Metadata = make(map[string]any, len(i.Metadata))
		for k, v := range i.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// Overall summarises a tracker.
type Overall struct {
	SessionID       string        `json:"session_id"`
	StagesCompleted int           `json:"stages_completed"`
	TotalStages     int           `json:"total_stages"`
	Percentage      float64       `json:"overall_percentage"`
	Elapsed         time.Duration `json:"total_elapsed"`
	Completed       bool          `json:"is_completed"`
	Stages          []Info        `json:"stages"`
}

// Tracker records stage progress for one session.
type Tracker struct {
	sessionID   string
	totalStages int
	logger      *slog.Logger

	mu            sync.Mutex
	stages        map[Stage]*Info
	order         []Stage
	stagesStarted int
	startTime     time.Time
	completed     bool
	completedAt   time.Time
	finalErr      string
}

// NewTracker creates a tracker expecting totalStages stages.
func NewTracker(sessionID string, totalStages int, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if totalStages < 1 {
		totalStages = 1
	}
	return &Tracker{
		sessionID:   sessionID,
		totalStages: totalStages,
		logger:      logger.With("component", "progress", "session", sessionID),
		stages:      make(map[Stage]*Info),
		startTime:   timeNow(),
	}
}

// SessionID returns the owning session's id.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// StartStage (re)starts a stage with current = 0.
func (t *Tracker) StartStage(stage Stage, total int, message string) Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startLocked(stage, total, message)
}

func (t *Tracker) startLocked(stage Stage, total int, message string) Info {
	if total < 0 {
		total = 0
	}
	now := timeNow()
	t.stagesStarted++
	if _, ok := t.stages[stage]; !ok {
		t.order = append(t.order, stage)
	}
	info := &Info{
		Stage:     stage,
		Total:     total,
		Message:   message,
		StartTime: now,
		UpdatedAt: now,
		Status:    StatusInProgress,
		Metadata: map[string]any{
			"stage_number": t.stagesStarted,
			"total_stages": t.totalStages,
			"session_id":   t.sessionID,
		},
	}
	t.stages[stage] = info
	t.logger.Info("stage started", "stage", stage, "total", total, "message", message)
	return info.clone()
}

// UpdateProgress advances a stage. A missing stage is started on the fly
// with total = current. Current never decreases and never exceeds total.
func (t *Tracker) UpdateProgress(stage Stage, current int, message string) Info {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.stages[stage]
	if !ok {
		t.logger.Warn("update for unknown stage, starting it", "stage", stage)
		t.startLocked(stage, current, message)
		info = t.stages[stage]
	}

	if current > info.Total {
		current = info.Total
	}
	if current > info.Current {
		info.Current = current
	}
	if message != "" {
		info.Message = message
	}
	info.UpdatedAt = timeNow()
	if info.Status == StatusNotStarted {
		info.Status = StatusInProgress
	}

	if step := max(1, info.Total/10); info.Current%step == 0 {
		t.logger.Debug("stage progress", "stage", stage, "current", info.Current, "total", info.Total, "percentage", info.Percentage())
	}
	return info.clone()
}

// CompleteStage forces current = total. Unknown stages are ignored.
func (t *Tracker) CompleteStage(stage Stage, message string) (Info, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.stages[stage]
	if !ok {
		return Info{}, false
	}
	info.Current = info.Total
	if message != "" {
		info.Message = message
	}
	info.Status = StatusCompleted
	info.UpdatedAt = timeNow()
	t.logger.Info("stage completed", "stage", stage, "elapsed", info.Elapsed())
	return info.clone(), true
}

// SetError marks a stage errored without touching its progress.
// Unknown stages are ignored.
func (t *Tracker) SetError(stage Stage, err error) (Info, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.stages[stage]
	if !ok {
		return Info{}, false
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	info.Status = StatusErrored
	info.Err = msg
	info.Message = "error: " + msg
	info.UpdatedAt = timeNow()
	t.logger.Error("stage failed", "stage", stage, "err", msg)
	return info.clone(), true
}

// CompleteSession marks the session done. Only the first call has effect;
// it reports whether this call completed the session.
func (t *Tracker) CompleteSession(err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.completed {
		return false
	}
	t.completed = true
	t.completedAt = timeNow()
	if err != nil {
		t.finalErr = err.Error()
	}
	t.logger.Info("session completed", "elapsed", t.completedAt.Sub(t.startTime), "err", t.finalErr)
	return true
}

// IsCompleted reports whether CompleteSession was called.
func (t *Tracker) IsCompleted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// CompletedAt returns when the session completed, or the zero time.
func (t *Tracker) CompletedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completedAt
}

// Stage returns a snapshot of one stage.
func (t *Tracker) Stage(stage Stage) (Info, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info, ok := t.stages[stage]
	if !ok {
		return Info{}, false
	}
	return info.clone(), true
}

// Overall summarises all stages in start order.
func (t *Tracker) Overall() Overall {
	t.mu.Lock()
	defer t.mu.Unlock()

	o := Overall{
		SessionID:   t.sessionID,
		TotalStages: t.totalStages,
		Completed:   t.completed,
		Stages:      make([]Info, 0, len(t.order)),
	}
	end := timeNow()
	if t.completed {
		end = t.completedAt
	}
	o.Elapsed = end.Sub(t.startTime)

	for _, stage := range t.order {
		info := t.stages[stage]
		if info.Status == StatusCompleted {
			o.StagesCompleted++
		}
		o.Stages = append(o.Stages, info.clone())
	}
	o.Percentage = min(100, float64(o.StagesCompleted)/float64(t.totalStages)*100)
	return o
}
