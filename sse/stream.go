package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/logger"
)

// Option configures Stream.
type Option func(*streamOptions)

type streamOptions struct {
	keepAlive time.Duration
}

// WithKeepAlive sets the keep-alive comment interval.
func WithKeepAlive(d time.Duration) Option {
	return func(o *streamOptions) {
		if d > 0 {
			o.keepAlive = d
		}
	}
}

// Stream writes events until the channel is closed or the client
// disconnects. The write deadline is lifted so long runs outlive the
// server's WriteTimeout.
func Stream(w http.ResponseWriter, r *http.Request, events <-chan Event, log *logger.Logger, opts ...Option) error {
	o := streamOptions{keepAlive: DefaultKeepAlive}
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.Nop()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.Internal(fmt.Errorf("response writer %T cannot flush", w))
	}
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("write deadline kept", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(o.keepAlive)
	defer keepAlive.Stop()

	sent := 0
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("client disconnected", logger.Fields("events", sent, "reason", ctx.Err().Error()))
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := WriteEvent(w, ev); err != nil {
				return err
			}
			flusher.Flush()
			sent++
		case <-keepAlive.C:
			if _, err := fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix()); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}

// WriteEvent writes a single frame. Data is encoded on one line.
func WriteEvent(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	if ev.Type != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", ev.Type); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// ErrorEvent converts err into an error event carrying its AppError code.
func ErrorEvent(err error) Event {
	code, msg := string(errors.ErrCodeInternal), err.Error()
	if appErr, ok := errors.AsAppError(err); ok {
		code, msg = string(appErr.Code), appErr.Message
	}
	return Event{Type: EventTypeError, Data: ErrorData{Code: code, Message: msg}}
}
