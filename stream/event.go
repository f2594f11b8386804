// Package stream publishes per-session processing events to subscribers.
//
// A Bus fans events out to channel subscribers without ever blocking the
// emitter. Completing a bus delivers a final complete event and closes every
// subscriber channel, so consumers can simply range over Subscription.C.
package stream

import "time"

// EventType classifies an event.
type EventType string

const (
	EventProgress  EventType = "progress"
	EventStatus    EventType = "status"
	EventError     EventType = "error"
	EventResult    EventType = "result"
	EventHeartbeat EventType = "heartbeat"
	EventComplete  EventType = "complete"
)

// Event is one timestamped message on a session bus.
type Event struct {
	Type      EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Payload   any       `json:"data,omitempty"`
}

// ProgressPayload accompanies EventProgress. Times are in seconds.
type ProgressPayload struct {
	Current    int      `json:"current"`
	Total      int      `json:"total"`
	Percentage float64  `json:"percentage"`
	Message    string   `json:"message,omitempty"`
	Stage      string   `json:"stage,omitempty"`
	Elapsed    float64  `json:"elapsed_time"`
	ETA        *float64 `json:"estimated_remaining,omitempty"`
}

// StatusPayload accompanies EventStatus.
type StatusPayload struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
	Uptime  float64        `json:"session_uptime"`
}

// ErrorPayload accompanies EventError.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// ResultPayload accompanies EventResult.
type ResultPayload struct {
	Result any    `json:"result"`
	Type   string `json:"result_type"`
}

// HeartbeatPayload accompanies EventHeartbeat.
type HeartbeatPayload struct {
	Uptime      float64 `json:"session_uptime"`
	Subscribers int     `json:"subscriber_count"`
}

// CompletePayload accompanies EventComplete.
type CompletePayload struct {
	Final     any     `json:"final_result,omitempty"`
	TotalTime float64 `json:"total_time"`
	Err       string  `json:"error,omitempty"`
}
