package exitpass

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/exitpass/session"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func auditConfig(endpoint string) Config {
	cfg := testConfig(endpoint)
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16
	cfg.Audit.DropIfFull = false
	return cfg
}

func nextEvent(t *testing.T, events <-chan AuditEvent) AuditEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected audit event")
		return AuditEvent{}
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{"loginUser": aliceLogin})
	cfg := testConfig(srv.URL)
	cfg.Audit.Enabled = false

	sink := &countingSink{}
	c := buildTestClient(t, cfg, nil, nil, sink, nil)

	_, _ = c.Login(context.Background(), "E100")
	c.Logout(context.Background())
	_ = c.Close()

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditLoginLogoutSequence(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{"loginUser": aliceLogin})
	sink := NewChannelSink(16)
	c := buildTestClient(t, auditConfig(srv.URL), nil, nil, sink, nil)

	if _, err := c.Login(context.Background(), "E100"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	c.Logout(context.Background())

	login := nextEvent(t, sink.Events())
	if login.EventType != AuditLogin || !login.Success || login.UserID != "E100" || login.Role != "employee" {
		t.Fatalf("unexpected login event %+v", login)
	}
	if login.Timestamp.IsZero() {
		t.Fatal("expected timestamp")
	}
	logout := nextEvent(t, sink.Events())
	if logout.EventType != AuditLogout || logout.UserID != "E100" {
		t.Fatalf("unexpected logout event %+v", logout)
	}
}

func TestAuditFailedLoginCarriesRemoteMessage(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{"loginUser": `{"success":false,"error":"User not found"}`})
	sink := NewChannelSink(4)
	c := buildTestClient(t, auditConfig(srv.URL), nil, nil, sink, nil)

	_, _ = c.Login(context.Background(), "X9")

	ev := nextEvent(t, sink.Events())
	if ev.EventType != AuditLogin || ev.Success || ev.Error != "User not found" || ev.UserID != "X9" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestAuditAccessDeniedAndExpiry(t *testing.T) {
	_, srv := newFakeBackend(t, map[string]string{"loginUser": aliceLogin})
	sink := NewChannelSink(16)
	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	cfg := auditConfig(srv.URL)
	cfg.Session.TimeoutMinutes = 1
	c := buildTestClient(t, cfg, nil, nil, sink, clock)

	if _, err := c.Login(context.Background(), "E100"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_ = nextEvent(t, sink.Events())

	c.RequireAuth(context.Background(), session.RoleApprover)
	denied := nextEvent(t, sink.Events())
	if denied.EventType != AuditAccessDenied || denied.View != session.ViewRequest {
		t.Fatalf("unexpected denied event %+v", denied)
	}

	clock.Advance(2 * time.Minute)
	c.RequireAuth(context.Background())
	expired := nextEvent(t, sink.Events())
	if expired.EventType != AuditSessionExpired || expired.UserID != "E100" {
		t.Fatalf("unexpected expiry event %+v", expired)
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink, nil)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink, nil)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditCloseDrainsQueue(t *testing.T) {
	sink := &countingSink{}
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink, nil)

	for i := 0; i < 5; i++ {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	}
	dispatcher.Close()

	if sink.Count() != 5 {
		t.Fatalf("expected 5 delivered events after Close, got %d", sink.Count())
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: AuditLogin,
		UserID:    "E100",
		Role:      "employee",
		Success:   true,
	})

	out := buf.String()
	if !strings.Contains(out, `"event_type":"login"`) {
		t.Fatalf("expected event type in %q", out)
	}
	if !strings.Contains(out, `"user_id":"E100"`) {
		t.Fatalf("expected user id in %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatal("expected trailing newline")
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{}, nil)

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

func TestSlogSinkLevelsAndAttributes(t *testing.T) {
	var buf syncBuffer
	sink := NewSlogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Emit(context.Background(), AuditEvent{EventType: AuditLogin, UserID: "E100", Role: session.RoleEmployee, Success: true})
	sink.Emit(context.Background(), AuditEvent{EventType: AuditAccessDenied, UserID: "E100", Role: session.RoleEmployee, View: session.ViewRequest})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"INFO"`) || !strings.Contains(lines[0], `"event":"login"`) {
		t.Fatalf("unexpected login line %q", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"WARN"`) || !strings.Contains(lines[1], `"view":"request"`) {
		t.Fatalf("unexpected denial line %q", lines[1])
	}
}

func TestAuditDispatcherDefaultsToLoggerSink(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 2}, nil, logger)

	dispatcher.Emit(context.Background(), AuditEvent{EventType: AuditLogout, UserID: "E100", Success: true})
	dispatcher.Close()

	if !strings.Contains(buf.String(), `"event":"logout"`) {
		t.Fatalf("expected logout event in log output, got %q", buf.String())
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
