// Package events contains the websocket message contracts used to stream
// pipeline progress to dashboard clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeRunSnapshot MessageType = "run:snapshot"

	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// Run and stage states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// RunSnapshot is the only progress message: the full state of a pipeline run
// after each stage transition.
type RunSnapshot struct {
	RunID        string          `json:"run_id"`
	Status       string          `json:"status"`
	Progress     int             `json:"progress"` // 0-100
	CurrentStage string          `json:"current_stage"`
	Stages       []StageSnapshot `json:"stages"`
	StartedAt    time.Time       `json:"started_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// StageSnapshot represents the state of a single stage
type StageSnapshot struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	RowsIn  int    `json:"rows_in,omitempty"`
	RowsOut int    `json:"rows_out,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	BaseMessage
	Data struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Fatal   bool   `json:"fatal"`
	} `json:"data"`
}
