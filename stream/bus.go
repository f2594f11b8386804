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


package stream

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// timeNow is a variable for testing purposes.
var timeNow = time.Now

// DefaultBuffer is the channel capacity used when Subscribe gets buffer < 1.
const DefaultBuffer = 64

// MaxBacklog bounds how many progress and heartbeat events may wait in a
// subscriber's queue. Beyond it those events are dropped for that subscriber.
// Status, error, result and complete events are always queued.
const MaxBacklog = 1024

// DefaultHeartbeatInterval is used by RunHeartbeat when interval <= 0.
const DefaultHeartbeatInterval = 30 * time.Second

// Subscription receives a bus's events on C in emission order. Emitting
// never waits for the reader: events queue up per subscription and a pump
// goroutine feeds them to C. After the bus completes, C yields the queued
// events, the complete event last, and is then closed. Unsubscribe closes C
// without draining.
type Subscription struct {
	C    <-chan Event
	out  chan Event
	wake chan struct{}
	quit chan struct{}
	stop sync.Once

	mu       sync.Mutex
	queue    []Event
	finished bool
}

func newSubscription(buffer int) *Subscription {
	out := make(chan Event, buffer)
	return &Subscription{
		C:    out,
		out:  out,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}
}

// push queues ev. Droppable events are refused once the backlog is full.
func (s *Subscription) push(ev Event, droppable bool) bool {
	s.mu.Lock()
	if droppable && len(s.queue) >= MaxBacklog {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
	return true
}

// finish lets the pump close C once the queue is empty.
func (s *Subscription) finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	s.signal()
}

// cancel stops the pump; queued events are discarded.
func (s *Subscription) cancel() {
	s.stop.Do(func() { close(s.quit) })
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			finished := s.finished
			s.mu.Unlock()
			if finished {
				return
			}
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			}
		}
		ev := s.queue[0]
		s.queue[0] = Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.quit:
			return
		}
	}
}

// Bus is the event stream of one session.
type Bus struct {
	sessionID string
	logger    *slog.Logger
	startTime time.Time
	done      chan struct{}

	mu           sync.Mutex
	subs         []*Subscription
	active       bool
	lastActivity time.Time
	dropped      int
}

// NewBus creates an active bus. A nil logger uses slog.Default().
func NewBus(sessionID string, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	now := timeNow()
	return &Bus{
		sessionID:    sessionID,
		logger:       logger.With("component", "stream", "session", sessionID),
		startTime:    now,
		lastActivity: now,
		done:         make(chan struct{}),
		active:       true,
	}
}

// SessionID returns the owning session's id.
func (b *Bus) SessionID() string {
	return b.sessionID
}

// Done is closed when the bus completes.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

// IsActive reports whether events are still accepted.
func (b *Bus) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// LastActivity returns when the bus last emitted an event.
func (b *Bus) LastActivity() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastActivity
}

// SubscriberCount returns the number of open subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns how many progress or heartbeat deliveries were skipped
// because a subscriber's backlog was full.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Subscribe registers a subscriber with the given buffer. Subscribing to a
// completed bus returns an already-closed subscription.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	sub := newSubscription(buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		close(sub.out)
		return sub
	}
	go sub.pump()
	b.subs = append(b.subs, sub)
	b.logger.Debug("subscriber added", "subscribers", len(b.subs))
	return sub
}

// Unsubscribe removes sub, discards its pending events and closes its
// channel. Calling it again, or after the bus completed, is safe.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub.cancel()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			b.logger.Debug("subscriber removed", "subscribers", len(b.subs))
			return
		}
	}
}

// Observe calls fn for every event on its own goroutine until the bus
// completes or the returned cancel func is called. A panicking fn is logged
// and skips that event only.
//
// cancel returns once fn will not be called again. On a completed bus it
// first lets fn see every remaining event, complete included.
func (b *Bus) Observe(fn func(Event)) (cancel func()) {
	sub := b.Subscribe(DefaultBuffer)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		for ev := range sub.C {
			b.call(fn, ev)
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			select {
			case <-b.done:
			default:
				b.Unsubscribe(sub)
			}
			<-exited
		})
	}
}

func (b *Bus) call(fn func(Event), ev Event) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("observer panicked", "event", ev.Type, "panic", p)
		}
	}()
	fn(ev)
}

// Emit publishes an event to every subscriber in subscription order. It
// never waits on a reader. Returns false once the bus has completed.
func (b *Bus) Emit(t EventType, payload any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return false
	}
	b.deliverLocked(t, payload)
	return true
}

func (b *Bus) deliverLocked(t EventType, payload any) {
	now := timeNow()
	ev := Event{Type: t, Timestamp: now, SessionID: b.sessionID, Payload: payload}
	droppable := t == EventProgress || t == EventHeartbeat
	for _, s := range b.subs {
		if !s.push(ev, droppable) {
			b.dropped++
			b.logger.Warn("subscriber backlog full, dropping event", "event", t)
		}
	}
	b.lastActivity = now
}

func (b *Bus) uptime() float64 {
	return round2(timeNow().Sub(b.startTime).Seconds())
}

// Progress emits a progress event with percentage, elapsed time and an ETA
// extrapolated from the time per finished unit.
func (b *Bus) Progress(current, total int, message, stage string) bool {
	p := ProgressPayload{
		Current: current,
		Total:   total,
		Message: message,
		Stage:   stage,
	}
	elapsed := timeNow().Sub(b.startTime).Seconds()
	p.Elapsed = round2(elapsed)
	if total > 0 {
		p.Percentage = round2(float64(current) / float64(total) * 100)
	}
	if current > 0 && total > current {
		eta := round2(elapsed / float64(current) * float64(total-current))
		p.ETA = &eta
	}
	return b.Emit(EventProgress, p)
}

// Status emits a status event.
func (b *Bus) Status(status string, details map[string]any) bool {
	return b.Emit(EventStatus, StatusPayload{Status: status, Details: details, Uptime: b.uptime()})
}

// Error emits an error event.
func (b *Bus) Error(message, code, detail string) bool {
	return b.Emit(EventError, ErrorPayload{Message: message, Code: code, Detail: detail})
}

// Result emits a result event.
func (b *Bus) Result(result any, resultType string) bool {
	return b.Emit(EventResult, ResultPayload{Result: result, Type: resultType})
}

// Heartbeat emits a heartbeat event.
func (b *Bus) Heartbeat() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return false
	}
	b.deliverLocked(EventHeartbeat, HeartbeatPayload{Uptime: b.uptime(), Subscribers: len(b.subs)})
	return true
}

// RunHeartbeat emits a heartbeat immediately and then every interval until
// ctx is done or the bus completes.
func (b *Bus) RunHeartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !b.Heartbeat() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case <-ticker.C:
		}
	}
}

// Complete emits the terminal complete event and deactivates the bus. Every
// subscription still receives its queued events and then the complete event
// before its channel closes. Only the first call has effect; it reports whether this
// call completed the bus.
func (b *Bus) Complete(final any, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return false
	}
	payload := CompletePayload{Final: final, TotalTime: b.uptime()}
	if err != nil {
		payload.Err = err.Error()
	}
	b.deliverLocked(EventComplete, payload)
	b.shutdownLocked()
	b.logger.Info("stream completed", "total_time", payload.TotalTime)
	return true
}

// Close deactivates the bus without a complete event.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active {
		b.shutdownLocked()
	}
}

func (b *Bus) shutdownLocked() {
	b.active = false
	for _, s := range b.subs {
		s.finish()
	}
	b.subs = nil
	close(b.done)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
