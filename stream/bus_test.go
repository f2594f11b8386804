package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(sub *Subscription) []Event {
	var out []Event
	for ev := range sub.C {
		out = append(out, ev)
	}
	return out
}

func TestBus_EmitOrder(t *testing.T) {
	b := NewBus("s1", nil)
	sub := b.Subscribe(16)

	require.True(t, b.Status("started", nil))
	require.True(t, b.Progress(1, 4, "working", "matching"))
	require.True(t, b.Result([]string{"C1"}, "match"))
	require.True(t, b.Complete("done", nil))

	events := drain(sub)
	require.Len(t, events, 4)
	assert.Equal(t, EventStatus, events[0].Type)
	assert.Equal(t, EventProgress, events[1].Type)
	assert.Equal(t, EventResult, events[2].Type)
	assert.Equal(t, EventComplete, events[3].Type)
	for _, ev := range events {
		assert.Equal(t, "s1", ev.SessionID)
	}
}

func TestBus_ProgressPayload(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	orig := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = orig })

	b := NewBus("s1", nil)
	sub := b.Subscribe(4)

	now = start.Add(10 * time.Second)
	b.Progress(2, 10, "", "matching")
	b.Progress(0, 0, "", "matching")
	b.Close()

	events := drain(sub)
	require.Len(t, events, 2)

	p := events[0].Payload.(ProgressPayload)
	assert.Equal(t, 20.0, p.Percentage)
	assert.Equal(t, 10.0, p.Elapsed)
	require.NotNil(t, p.ETA)
	assert.Equal(t, 40.0, *p.ETA)

	p = events[1].Payload.(ProgressPayload)
	assert.Zero(t, p.Percentage)
	assert.Nil(t, p.ETA)
}

func TestBus_SlowSubscriberGetsEveryResult(t *testing.T) {
	const n = 500
	b := NewBus("s1", nil)
	slow := b.Subscribe(1)
	fast := b.Subscribe(8)

	got := make(chan []Event, 1)
	go func() {
		var events []Event
		for ev := range slow.C {
			time.Sleep(50 * time.Microsecond)
			events = append(events, ev)
		}
		got <- events
	}()

	for i := range n {
		require.True(t, b.Result(i, "match"))
	}
	require.True(t, b.Complete("done", nil))

	for _, events := range [][]Event{<-got, drain(fast)} {
		require.Len(t, events, n+1)
		for i, ev := range events[:n] {
			require.Equal(t, EventResult, ev.Type)
			assert.Equal(t, i, ev.Payload.(ResultPayload).Result)
		}
		assert.Equal(t, EventComplete, events[n].Type)
	}
	assert.Zero(t, b.Dropped())
}

func TestBus_BacklogDropsOnlyProgress(t *testing.T) {
	b := NewBus("s1", nil)
	sub := b.Subscribe(1)

	for i := range MaxBacklog + 16 {
		require.True(t, b.Progress(i, MaxBacklog+16, "", "matching"))
	}
	assert.Positive(t, b.Dropped())

	require.True(t, b.Result("C1", "match"))
	require.True(t, b.Status("finishing", nil))
	require.True(t, b.Complete(nil, nil))

	events := drain(sub)
	require.GreaterOrEqual(t, len(events), 3)
	tail := events[len(events)-3:]
	assert.Equal(t, EventResult, tail[0].Type)
	assert.Equal(t, EventStatus, tail[1].Type)
	assert.Equal(t, EventComplete, tail[2].Type)
	assert.Equal(t, MaxBacklog+16-b.Dropped(), len(events)-3)
}

func TestBus_ObserveCancelAfterCompleteSeesEverything(t *testing.T) {
	b := NewBus("s1", nil)

	var results atomic.Int32
	var completes atomic.Int32
	cancel := b.Observe(func(ev Event) {
		time.Sleep(100 * time.Microsecond)
		switch ev.Type {
		case EventResult:
			results.Add(1)
		case EventComplete:
			completes.Add(1)
		}
	})

	for i := range 3 * DefaultBuffer {
		b.Result(i, "match")
	}
	b.Complete(nil, nil)
	cancel()

	assert.EqualValues(t, 3*DefaultBuffer, results.Load())
	assert.EqualValues(t, 1, completes.Load())
}

func TestBus_EmitAfterComplete(t *testing.T) {
	b := NewBus("s1", nil)
	sub := b.Subscribe(4)

	require.True(t, b.Complete(nil, errors.New("boom")))
	assert.False(t, b.Complete(nil, nil))
	assert.False(t, b.Emit(EventStatus, nil))
	assert.False(t, b.Heartbeat())
	assert.False(t, b.IsActive())

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, "boom", events[0].Payload.(CompletePayload).Err)

	select {
	case <-b.Done():
	default:
		t.Fatal("done channel should be closed")
	}

	late := b.Subscribe(4)
	_, ok := <-late.C
	assert.False(t, ok)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus("s1", nil)
	sub := b.Subscribe(4)
	require.Equal(t, 1, b.SubscriberCount())

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	assert.Zero(t, b.SubscriberCount())
	_, ok := <-sub.C
	assert.False(t, ok)
	assert.True(t, b.Status("still active", nil))
}

func TestBus_ObserverPanicIsContained(t *testing.T) {
	b := NewBus("s1", nil)

	var seen atomic.Int32
	b.Observe(func(ev Event) {
		if ev.Type == EventError {
			panic("observer bug")
		}
		seen.Add(1)
	})

	b.Error("bad", "E1", "")
	b.Status("ok", nil)
	b.Complete(nil, nil)

	assert.Eventually(t, func() bool { return seen.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestBus_ObserveCancel(t *testing.T) {
	b := NewBus("s1", nil)
	cancel := b.Observe(func(Event) {})
	require.Equal(t, 1, b.SubscriberCount())
	cancel()
	cancel()
	assert.Zero(t, b.SubscriberCount())
}

func TestBus_RunHeartbeat(t *testing.T) {
	b := NewBus("s1", nil)
	sub := b.Subscribe(64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.RunHeartbeat(ctx, 5*time.Millisecond)
		close(done)
	}()

	ev := <-sub.C
	assert.Equal(t, EventHeartbeat, ev.Type)
	assert.Equal(t, 1, ev.Payload.(HeartbeatPayload).Subscribers)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat loop did not stop on cancel")
	}
}

func TestBus_RunHeartbeatStopsOnComplete(t *testing.T) {
	b := NewBus("s1", nil)
	done := make(chan struct{})
	go func() {
		b.RunHeartbeat(context.Background(), time.Hour)
		close(done)
	}()

	b.Complete(nil, nil)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("heartbeat loop did not stop on complete")
	}
}
