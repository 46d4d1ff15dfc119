package engine

import (
	"context"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine/cache"
)

// SessionState is the gate's answer to "who is calling". Every
// protected view composes with the gate before rendering.
type SessionState int

const (
	// SessionUnknown means no probe has been issued yet.
	SessionUnknown SessionState = iota

	// SessionProbing means the probe is in flight.
	SessionProbing

	// SessionAuthenticated means the probe returned a user.
	SessionAuthenticated

	// SessionAnonymous means the probe settled with no user: either a
	// null-user success or a failure classified as "not logged in".
	SessionAnonymous

	// SessionProbeFailed means the probe failed for a non-auth reason.
	// This is the only state with an explicit retry action.
	SessionProbeFailed
)

// String returns the lowercase state name.
func (s SessionState) String() string {
	switch s {
	case SessionUnknown:
		return "unknown"
	case SessionProbing:
		return "probing"
	case SessionAuthenticated:
		return "authenticated"
	case SessionAnonymous:
		return "anonymous"
	case SessionProbeFailed:
		return "probe_failed"
	default:
		return "invalid"
	}
}

// SessionStatus is a snapshot of the gate.
type SessionStatus struct {
	State SessionState
	User  *api.User
	Err   error
}

// LoggedIn reports whether a user is authenticated.
func (s SessionStatus) LoggedIn() bool {
	return s.State == SessionAuthenticated && s.User != nil
}

// sessionFetcher probes the backend for the current identity. An
// unauthorized-classified failure is downgraded to a null-user success
// here — "not logged in" is an expected outcome, not an error. This is
// the single place the layer is allowed to swallow an error.
func (e *Engine) sessionFetcher() fetchFunc {
	return func(ctx context.Context) (any, error) {
		user, err := e.client.GetMe(ctx)
		if err != nil {
			if api.IsUnauthorized(err) {
				e.logger.Debug().
					Str("component", "engine").
					Err(err).
					Msg("probe failure classified as anonymous")
				return (*api.User)(nil), nil
			}
			return nil, err
		}
		return user, nil
	}
}

// ProbeSession resolves the current session, issuing the probe when the
// entry is absent or stale. The session entry has a zero freshness
// window: it revalidates on every demand and never passively on mount.
// Returns the settled status; the error is only the caller's ctx
// expiring while waiting.
func (e *Engine) ProbeSession(ctx context.Context) (SessionStatus, error) {
	_, err := e.resolve(ctx, SessionKey(), 0, e.sessionFetcher(), nil)
	if err != nil {
		return SessionStatus{State: SessionProbing}, err
	}
	return e.SessionSnapshot(), nil
}

// SessionSnapshot derives the gate state from the session entry without
// issuing any call.
func (e *Engine) SessionSnapshot() SessionStatus {
	entry, ok := e.store.Get(SessionKey())
	if !ok || entry.Status == cache.StatusIdle {
		return SessionStatus{State: SessionUnknown}
	}
	switch entry.Status {
	case cache.StatusLoading:
		return SessionStatus{State: SessionProbing}
	case cache.StatusError:
		return SessionStatus{State: SessionProbeFailed, Err: entry.Err}
	case cache.StatusSuccess:
		if user, castOK := entry.Data.(*api.User); castOK && user != nil {
			return SessionStatus{State: SessionAuthenticated, User: user}
		}
		return SessionStatus{State: SessionAnonymous}
	default:
		return SessionStatus{State: SessionUnknown}
	}
}

// RetryProbe re-issues the probe after a failure. It only acts from
// SessionProbeFailed; every other state is terminal until a
// write-triggered invalidation moves it.
func (e *Engine) RetryProbe(ctx context.Context) (SessionStatus, error) {
	if e.SessionSnapshot().State != SessionProbeFailed {
		return e.SessionSnapshot(), nil
	}
	e.store.Invalidate(SessionKey())
	return e.ProbeSession(ctx)
}
