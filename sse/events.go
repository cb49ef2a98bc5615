package sse

import "time"

// Generic event types. Domain events use their own names.
const (
	EventTypeError = "error"
	EventTypeDone  = "done"
)

// DefaultKeepAlive is below the idle timeout of common proxies.
const DefaultKeepAlive = 30 * time.Second

// Event is one server-sent event. Data is encoded as JSON.
type Event struct {
	Type string
	Data any
}

// ErrorData is the payload of an error event.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
