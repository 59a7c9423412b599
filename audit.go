package exitpass

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/exitpass/session"
)

// AuditEventType names what happened to the session.
type AuditEventType string

const (
	AuditLogin          AuditEventType = "login"
	AuditLogout         AuditEventType = "logout"
	AuditSessionExpired AuditEventType = "session_expired"
	AuditAccessDenied   AuditEventType = "access_denied"
)

// AuditEvent records one session transition on this client. View is the view
// the client was sent to, if any.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType AuditEventType `json:"event_type"`
	UserID    string         `json:"user_id,omitempty"`
	Role      session.Role   `json:"role,omitempty"`
	View      session.View   `json:"view,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink exposes events on a channel, mostly for tests and embedding
// applications that forward them elsewhere.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink returns a sink with a channel of the given capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the receive side of the sink channel.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink appends one JSON object per event to w.
type JSONWriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{w: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.w == nil {
		return
	}
	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.w.Write(append(line, '\n'))
}

// SlogSink writes events to a logger at info level, or warn for failures and
// denials. It is the sink used when auditing is enabled without one.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a sink logging to logger. Nil discards.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Emit(ctx context.Context, event AuditEvent) {
	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("event", string(event.EventType)),
		slog.Time("at", event.Timestamp),
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Role != "" {
		attrs = append(attrs, slog.String("role", string(event.Role)))
	}
	if event.View != "" {
		attrs = append(attrs, slog.String("view", string(event.View)))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	s.logger.LogAttrs(ctx, level, "audit", attrs...)
}
