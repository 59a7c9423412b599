package exitpass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/exitpass/rpc"
	"github.com/MrEthical07/exitpass/session"
)

// Client ties the session manager to the backend gateway. It is safe for
// concurrent use after [Builder.Build].
type Client struct {
	config    Config
	sessions  *session.Manager
	gateway   *rpc.Gateway
	navigator session.Navigator
	logger    *slog.Logger
	audit     *auditDispatcher
	metrics   *Metrics
	now       func() time.Time

	closers   []io.Closer
	closeOnce sync.Once
}

// Close flushes queued audit events and releases the session backend.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	c.closeOnce.Do(func() {
		c.audit.Close()
		for _, cl := range c.closers {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.config
}

// Sessions exposes the session manager, e.g. for [middleware.RequireRoles].
func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

// Gateway exposes the backend gateway for the pass actions.
func (c *Client) Gateway() *rpc.Gateway {
	return c.gateway
}

// AuditDropped returns how many audit events were dropped on a full queue.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot copies the current metric values. It is empty while
// metrics are disabled.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// Login resolves userID with the backend, saves the returned identity as the
// current session and navigates to the role's view.
//
// A rejected login returns an error wrapping [ErrLoginRejected] and the
// backend's *rpc.RemoteError; the stored session is left untouched. A
// success reply without a role is not saved and returns an error wrapping
// [ErrSessionSave] and [session.ErrInvalidRecord].
func (c *Client) Login(ctx context.Context, userID string) (session.Session, error) {
	if c == nil || c.sessions == nil {
		return session.Session{}, ErrClientNotReady
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return session.Session{}, ErrUserIDRequired
	}

	res := c.gateway.LoginUser(ctx, userID)
	if !res.Success {
		c.metrics.Inc(MetricLoginFailure)
		c.emitAudit(ctx, AuditEvent{EventType: AuditLogin, UserID: userID, Error: res.Error})
		return session.Session{}, fmt.Errorf("%w: %w", ErrLoginRejected, res.Err())
	}

	p := res.Data
	if p.UserID == "" {
		p.UserID = userID
	}
	s, err := c.sessions.Save(ctx, session.LoginResult{
		UserID:     p.UserID,
		Name:       p.Name,
		Email:      p.Email,
		Department: p.Department,
		Role:       session.Role(p.Role),
	})
	if err != nil {
		c.metrics.Inc(MetricLoginFailure)
		c.logger.ErrorContext(ctx, "session save failed", "user_id", p.UserID, "error", err)
		c.emitAudit(ctx, AuditEvent{EventType: AuditLogin, UserID: p.UserID, Role: session.Role(p.Role), Error: err.Error()})
		return session.Session{}, fmt.Errorf("%w: %w", ErrSessionSave, err)
	}

	c.metrics.Inc(MetricLoginSuccess)
	c.emitAudit(ctx, AuditEvent{EventType: AuditLogin, UserID: s.UserID, Role: s.Role, Success: true})
	c.sessions.RedirectByRole(s.Role)
	return s, nil
}

// Logout clears the session and returns to the login view.
func (c *Client) Logout(ctx context.Context) {
	if c == nil || c.sessions == nil {
		return
	}
	prev, had := c.sessions.Read(ctx)
	c.sessions.Clear(ctx)
	c.metrics.Inc(MetricLogout)
	if had {
		c.emitAudit(ctx, AuditEvent{EventType: AuditLogout, UserID: prev.UserID, Role: prev.Role, Success: true})
	}
	c.navigator.GoTo(session.ViewLogin)
}

// Session returns the current session, if any.
func (c *Client) Session(ctx context.Context) (session.Session, bool) {
	if c == nil || c.sessions == nil {
		return session.Session{}, false
	}
	return c.sessions.Read(ctx)
}

// RequireAuth gates a view; see [session.Manager.RequireAuth].
func (c *Client) RequireAuth(ctx context.Context, roles ...session.Role) (session.Session, bool) {
	if c == nil || c.sessions == nil {
		return session.Session{}, false
	}
	return c.sessions.RequireAuth(ctx, roles...)
}

// Authorize is RequireAuth without navigation.
func (c *Client) Authorize(ctx context.Context, roles ...session.Role) session.Decision {
	if c == nil || c.sessions == nil {
		return session.Decision{Redirect: session.ViewLogin}
	}
	return c.sessions.Authorize(ctx, roles...)
}

// RouteFor returns the default view of role.
func (c *Client) RouteFor(role session.Role) session.View {
	return session.RouteFor(role)
}

// VerifyURL returns the QR landing URL for passID.
func (c *Client) VerifyURL(passID string) (string, error) {
	passID = strings.TrimSpace(passID)
	if passID == "" {
		return "", ErrPassIDRequired
	}
	if c == nil || c.config.App.VerifyURL == "" {
		return "", ErrVerifyURLUnset
	}
	u, err := url.Parse(c.config.App.VerifyURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	q := u.Query()
	q.Set("id", passID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) onSessionEvent(ctx context.Context, ev session.Event) {
	c.metrics.RecordSessionEvent(ev)
	switch ev.Kind {
	case session.EventExpired:
		c.emitAudit(ctx, AuditEvent{EventType: AuditSessionExpired, UserID: ev.UserID, Role: ev.Role, Success: true})
	case session.EventDenied:
		c.emitAudit(ctx, AuditEvent{EventType: AuditAccessDenied, UserID: ev.UserID, Role: ev.Role, View: ev.View})
	}
}

func (c *Client) onCall(_ context.Context, info rpc.CallInfo) {
	c.metrics.RecordCall(info)
}

func (c *Client) emitAudit(ctx context.Context, ev AuditEvent) {
	if c.audit == nil {
		return
	}
	ev.Timestamp = c.now()
	c.audit.Emit(ctx, ev)
}
