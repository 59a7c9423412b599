package exitpass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/MrEthical07/exitpass/rpc"
	"github.com/MrEthical07/exitpass/session"
)

// Builder assembles a [Client]. A Builder is single-use.
type Builder struct {
	config    Config
	store     session.Store
	navigator session.Navigator
	doer      rpc.Doer
	logger    *slog.Logger
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the whole configuration. It is validated by Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore overrides the store selected by Config.Session.Backend. The
// caller keeps ownership of store.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithNavigator sets where view changes go. Without one, navigation is a
// no-op.
func (b *Builder) WithNavigator(nav session.Navigator) *Builder {
	b.navigator = nav
	return b
}

// WithHTTPClient sets the transport used by the gateway.
func (b *Builder) WithHTTPClient(d rpc.Doer) *Builder {
	b.doer = d
	return b
}

// WithLogger sets the logger shared by every component. Nil discards logs.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit destination. It is only used when
// Config.Audit.Enabled is true; without a sink events go to the logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock replaces time.Now for session stamping and expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled overrides Config.Metrics.Enabled.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the client. It opens the
// configured session backend unless a store was supplied.
func (b *Builder) Build() (*Client, error) {
	return b.BuildContext(context.Background())
}

// BuildContext is Build with a context bounding backend connection setup.
func (b *Builder) BuildContext(ctx context.Context) (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	navigator := b.navigator
	if navigator == nil {
		navigator = session.NavigatorFunc(func(session.View) {})
	}

	c := &Client{
		config:    cfg,
		navigator: navigator,
		logger:    logger,
		metrics:   NewMetrics(cfg.Metrics),
		audit:     newAuditDispatcher(cfg.Audit, b.auditSink, logger.With("component", "audit")),
		now:       b.clock,
	}
	if c.now == nil {
		c.now = time.Now
	}

	store := b.store
	if store == nil {
		s, closer, err := openStore(ctx, cfg.Session)
		if err != nil {
			c.audit.Close()
			return nil, err
		}
		store = s
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}

	var codec session.Codec = session.JSONCodec{}
	if cfg.Session.SigningKey != "" {
		signed, err := session.NewSignedCodec([]byte(cfg.Session.SigningKey))
		if err != nil {
			c.Close()
			return nil, err
		}
		codec = signed
	}

	mgr, err := session.NewManager(store, session.Options{
		Key:            cfg.Session.Key,
		TimeoutMinutes: cfg.Session.TimeoutMinutes,
		Codec:          codec,
		Navigator:      navigator,
		Clock:          c.now,
		Logger:         logger.With("component", "session"),
		OnEvent:        c.onSessionEvent,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	c.sessions = mgr

	opts := []rpc.Option{
		rpc.WithLogger(logger.With("component", "rpc")),
		rpc.WithObserver(c.onCall),
	}
	if b.doer != nil {
		opts = append(opts, rpc.WithHTTPClient(b.doer))
	}
	gw, err := rpc.New(cfg.Endpoint.URL, opts...)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.gateway = gw

	b.built = true
	return c, nil
}

// openStore opens the backend named by cfg. The returned closer is nil for
// backends without resources to release.
func openStore(ctx context.Context, cfg SessionConfig) (session.Store, io.Closer, error) {
	switch cfg.Backend {
	case BackendMemory:
		return session.NewMemoryStore(), nil, nil
	case BackendFile:
		dir := cfg.Dir
		if dir == "" {
			d, err := session.DefaultDir()
			if err != nil {
				return nil, nil, err
			}
			dir = d
		}
		s, err := session.NewFileStore(dir)
		return s, nil, err
	case BackendRedis:
		client, err := session.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(client, cfg.RedisPrefix), client, nil
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			dir, err := session.DefaultDir()
			if err != nil {
				return nil, nil, err
			}
			path = filepath.Join(dir, "session.db")
		}
		s, err := session.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown session backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
