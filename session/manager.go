package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// DefaultKey is the fixed key the session record is stored under.
const DefaultKey = "ep_session"

// EventKind classifies a lifecycle [Event].
type EventKind uint8

const (
	// EventSaved fires after a session was persisted.
	EventSaved EventKind = iota + 1
	// EventCleared fires after an explicit Clear.
	EventCleared
	// EventExpired fires when a read found the session past its timeout.
	EventExpired
	// EventCorrupt fires when the stored record could not be decoded.
	EventCorrupt
	// EventUnauthenticated fires when a gated view found no session.
	EventUnauthenticated
	// EventDenied fires when a gated view rejected the session's role.
	EventDenied
)

// Event describes a session lifecycle transition for metrics and auditing.
type Event struct {
	Kind   EventKind
	UserID string
	Role   Role
	View   View
}

// Options configures a [Manager]. Zero values select the defaults.
type Options struct {
	// Key is the store key; defaults to [DefaultKey].
	Key string
	// TimeoutMinutes bounds a session's lifetime. 0 disables expiry.
	TimeoutMinutes int
	Codec          Codec
	Navigator      Navigator
	Clock          func() time.Time
	Logger         *slog.Logger
	OnEvent        func(ctx context.Context, ev Event)
}

// Manager is the single source of truth for who is logged in, with what
// role, until when. It holds no session state of its own; every read goes to
// the [Store], so processes sharing a store observe each other's logouts.
type Manager struct {
	store     Store
	key       string
	timeoutMs int64
	codec     Codec
	navigator Navigator
	now       func() time.Time
	logger    *slog.Logger
	onEvent   func(context.Context, Event)
}

// NewManager returns a Manager persisting into store.
func NewManager(store Store, opts Options) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if opts.TimeoutMinutes < 0 {
		return nil, errors.New("session timeout must be >= 0 minutes")
	}

	m := &Manager{
		store:     store,
		key:       opts.Key,
		timeoutMs: int64(opts.TimeoutMinutes) * int64(time.Minute/time.Millisecond),
		codec:     opts.Codec,
		navigator: opts.Navigator,
		now:       opts.Clock,
		logger:    opts.Logger,
		onEvent:   opts.OnEvent,
	}
	if m.key == "" {
		m.key = DefaultKey
	}
	if m.codec == nil {
		m.codec = JSONCodec{}
	}
	if m.navigator == nil {
		m.navigator = noopNavigator{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m, nil
}

// Save builds a session from a login result, stamps LoggedInAt with the
// current time and persists it. A result without a user id or role is
// refused with [ErrInvalidRecord] and the stored record is left as it was.
// Unknown non-empty roles are saved; they only affect routing.
func (m *Manager) Save(ctx context.Context, res LoginResult) (Session, error) {
	switch {
	case strings.TrimSpace(res.UserID) == "":
		return Session{}, fmt.Errorf("%w: user_id is required", ErrInvalidRecord)
	case strings.TrimSpace(string(res.Role)) == "":
		return Session{}, fmt.Errorf("%w: role is required", ErrInvalidRecord)
	}

	s := Session{
		UserID:     res.UserID,
		Name:       res.Name,
		Email:      res.Email,
		Department: res.Department,
		Role:       res.Role,
		LoggedInAt: m.now().UnixMilli(),
	}

	data, err := m.codec.Encode(s)
	if err != nil {
		return Session{}, err
	}
	if err := m.store.Set(ctx, m.key, data); err != nil {
		return Session{}, err
	}

	m.logger.InfoContext(ctx, "session saved", "user_id", s.UserID, "role", s.Role)
	m.emit(ctx, Event{Kind: EventSaved, UserID: s.UserID, Role: s.Role})
	return s, nil
}

// Read returns the persisted session. It reports false when the record is
// missing, unreadable, incomplete or expired; an expired record is deleted
// as part of the call. Expiry triggers only when elapsed time strictly
// exceeds the timeout.
func (m *Manager) Read(ctx context.Context) (Session, bool) {
	data, err := m.store.Get(ctx, m.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.WarnContext(ctx, "session read failed", "error", err)
		}
		return Session{}, false
	}

	s, err := m.codec.Decode(data)
	if err != nil {
		m.logger.WarnContext(ctx, "session record rejected", "error", err)
		m.emit(ctx, Event{Kind: EventCorrupt})
		return Session{}, false
	}

	if m.timeoutMs > 0 {
		elapsed := m.now().UnixMilli() - s.LoggedInAt
		if elapsed > m.timeoutMs {
			m.clear(ctx)
			m.logger.InfoContext(ctx, "session expired", "user_id", s.UserID, "elapsed", time.Duration(elapsed)*time.Millisecond)
			m.emit(ctx, Event{Kind: EventExpired, UserID: s.UserID, Role: s.Role})
			return Session{}, false
		}
	}

	return s, true
}

// Clear removes the persisted session. It is idempotent; store failures are
// logged, not returned.
func (m *Manager) Clear(ctx context.Context) {
	m.clear(ctx)
	m.emit(ctx, Event{Kind: EventCleared})
}

func (m *Manager) clear(ctx context.Context) {
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.logger.WarnContext(ctx, "session clear failed", "error", err)
	}
}

// Decision is the outcome of [Manager.Authorize].
type Decision struct {
	Session Session
	Allowed bool
	// Redirect is the view to switch to when Allowed is false.
	Redirect View
}

// Authorize decides whether the current session may open a view restricted
// to roles. An empty roles list admits any valid session. It does not
// navigate.
func (m *Manager) Authorize(ctx context.Context, roles ...Role) Decision {
	s, ok := m.Read(ctx)
	if !ok {
		m.emit(ctx, Event{Kind: EventUnauthenticated, View: ViewLogin})
		return Decision{Redirect: ViewLogin}
	}
	if len(roles) > 0 && !slices.Contains(roles, s.Role) {
		view := RouteFor(s.Role)
		m.emit(ctx, Event{Kind: EventDenied, UserID: s.UserID, Role: s.Role, View: view})
		return Decision{Redirect: view}
	}
	return Decision{Session: s, Allowed: true}
}

// RequireAuth gates a view. When the session is absent it navigates to the
// login view; when the role is not in roles it navigates to the role's own
// view. In both cases it returns false and callers must not render.
func (m *Manager) RequireAuth(ctx context.Context, roles ...Role) (Session, bool) {
	d := m.Authorize(ctx, roles...)
	if !d.Allowed {
		m.navigator.GoTo(d.Redirect)
		return Session{}, false
	}
	return d.Session, true
}

// RedirectByRole navigates to the default view of role.
func (m *Manager) RedirectByRole(role Role) {
	m.navigator.GoTo(RouteFor(role))
}

func (m *Manager) emit(ctx context.Context, ev Event) {
	if m.onEvent != nil {
		m.onEvent(ctx, ev)
	}
}
