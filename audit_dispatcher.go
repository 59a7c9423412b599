package exitpass

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// auditDispatcher delivers events to the sink from one goroutine, so sink
// latency never reaches Login, Logout or a gated view.
type auditDispatcher struct {
	sink       AuditSink
	logger     *slog.Logger
	dropIfFull bool

	queue   chan AuditEvent
	stop    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

// newAuditDispatcher returns nil when auditing is disabled; a nil dispatcher
// accepts and discards events.
func newAuditDispatcher(cfg AuditConfig, sink AuditSink, logger *slog.Logger) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if sink == nil {
		sink = NewSlogSink(logger)
	}

	d := &auditDispatcher{
		sink:       sink,
		logger:     logger,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		stop:       make(chan struct{}),
	}
	d.stopped.Add(1)
	go d.loop()
	return d
}

func (d *auditDispatcher) loop() {
	defer d.stopped.Done()
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(context.Background(), ev)
		case <-d.stop:
			d.flush()
			return
		}
	}
}

// flush delivers whatever was queued before Close.
func (d *auditDispatcher) flush() {
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(context.Background(), ev)
		default:
			return
		}
	}
}

// Emit queues ev. With DropIfFull a full queue drops ev; otherwise Emit waits
// for room, for ctx to end or for Close.
func (d *auditDispatcher) Emit(ctx context.Context, ev AuditEvent) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !d.dropIfFull {
		select {
		case d.queue <- ev:
		case <-ctx.Done():
		case <-d.stop:
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-d.stop:
	default:
		n := d.dropped.Add(1)
		// log the 1st, 2nd, 4th, 8th... drop
		if n&(n-1) == 0 {
			d.logger.WarnContext(ctx, "audit queue full, dropping events", "event", string(ev.EventType), "dropped_total", n)
		}
	}
}

// Close stops intake and waits until queued events reach the sink. It is safe
// to call more than once.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.stop)
		d.stopped.Wait()
	})
}

func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
