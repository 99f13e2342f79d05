package maxitaxi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/JakubNatonek/MaxiTaxi-sub000/internal/flows"
	"github.com/JakubNatonek/MaxiTaxi-sub000/store"
	"github.com/JakubNatonek/MaxiTaxi-sub000/token"
)

// Engine defines a public type used by MaxiTaxi client APIs.
//
// Engine is the session lifecycle controller: it owns the store, wires the
// session clock and the secure dispatcher together, and notifies the
// embedding application on every authenticated/unauthenticated transition.
// Engine instances are intended to be configured through [Builder.Build] and
// then treated as immutable unless documented otherwise.
type Engine struct {
	config   Config
	store    store.Store
	dispatch *dispatcher
	clock    *sessionClock
	metrics  *Metrics
	log      zerolog.Logger
	listener AuthListener

	authed atomic.Bool
}

// Start describes the start operation and its observable behavior.
//
// Start restores a previously persisted session when one is found and still
// unexpired, clears an expired or unparsable one before anything renders,
// and launches the session clock.
// Start may return an error when the store cannot be read or the clock
// cannot be scheduled.
func (e *Engine) Start(ctx context.Context) error {
	if e == nil || e.clock == nil {
		return ErrEngineNotReady
	}

	tok, err := e.store.Token(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	switch {
	case tok == "":
		e.clock.setState(StateNoSession)
	default:
		claims, decodeErr := token.Decode(tok)
		if decodeErr != nil || claims.Expired(e.clock.now()) {
			e.forceLogout(ctx)
			e.clock.setState(StateNoSession)
			e.log.Info().Msg("discarded stale persisted session")
		} else {
			e.clock.setState(StateValid)
			e.setAuthenticated(true)
			e.log.Info().Str("role", Role(claims.RoleID).String()).Msg("restored persisted session")
		}
	}

	return e.clock.Start()
}

// Close describes the close operation and its observable behavior.
//
// Close stops the session clock; the stored session is left untouched.
// Close is idempotent.
func (e *Engine) Close() {
	if e == nil || e.clock == nil {
		return
	}
	e.clock.Stop()
}

// Login describes the login operation and its observable behavior.
//
// Login sends encrypted credentials to the login endpoint, adopts the
// returned token, persists it with its derived role, and transitions the
// application to the authenticated area.
// Login may return an error when the request fails or the response carries
// no usable token.
func (e *Engine) Login(ctx context.Context, email, password string) (Session, error) {
	if e == nil || e.dispatch == nil {
		return Session{}, ErrEngineNotReady
	}

	resp, err := e.dispatch.Send(ctx, endpointLogin, loginRequest{Email: email, Password: password}, http.MethodPost)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return Session{}, err
	}

	sess, err := e.adoptToken(ctx, resp)
	if err != nil {
		e.metrics.Inc(MetricLoginFailure)
		return Session{}, err
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.log.Info().Str("role", sess.Role().String()).Msg("login succeeded")
	return sess, nil
}

// Register describes the register operation and its observable behavior.
//
// Register behaves like Login for the registration endpoint: a successful
// registration yields an immediate session.
func (e *Engine) Register(ctx context.Context, reg Registration) (Session, error) {
	if e == nil || e.dispatch == nil {
		return Session{}, ErrEngineNotReady
	}

	resp, err := e.dispatch.Send(ctx, endpointRegister, reg, http.MethodPost)
	if err != nil {
		e.metrics.Inc(MetricRegisterFailure)
		return Session{}, err
	}

	sess, err := e.adoptToken(ctx, resp)
	if err != nil {
		e.metrics.Inc(MetricRegisterFailure)
		return Session{}, err
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.log.Info().Str("role", sess.Role().String()).Msg("registration succeeded")
	return sess, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout clears the persisted session and transitions the application to
// the unauthenticated area. Safe to invoke when already logged out.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if err := e.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	e.clock.setState(StateNoSession)
	e.metrics.Inc(MetricLogout)
	e.setAuthenticated(false)
	return nil
}

// Send describes the send operation and its observable behavior.
//
// Send is the encrypted POST primitive every screen calls: payload is
// encrypted into an envelope, the bearer token is attached, and the response
// is decrypted when the server answered with an envelope.
// Send may return ErrSessionExpired (after the forced-logout side effect),
// a *RequestError, or an error wrapping ErrDecryption. It never retries.
func (e *Engine) Send(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return e.SendMethod(ctx, endpoint, payload, http.MethodPost)
}

// SendMethod describes the sendmethod operation and its observable behavior.
//
// SendMethod is Send with an explicit HTTP method for the handful of
// endpoints that use PUT or DELETE semantics.
func (e *Engine) SendMethod(ctx context.Context, endpoint string, payload any, method string) (*Response, error) {
	if e == nil || e.dispatch == nil {
		return nil, ErrEngineNotReady
	}
	return e.dispatch.Send(ctx, endpoint, payload, method)
}

// Get describes the get operation and its observable behavior.
//
// Get is the encrypted-read primitive: a body-less authenticated call whose
// response is decrypted when the server answered with an envelope.
func (e *Engine) Get(ctx context.Context, endpoint string) (*Response, error) {
	if e == nil || e.dispatch == nil {
		return nil, ErrEngineNotReady
	}
	return e.dispatch.Get(ctx, endpoint)
}

// NotifyActivity describes the notifyactivity operation and its observable behavior.
//
// NotifyActivity feeds the activity trigger of the session clock; screens
// call it on pointer press, touch start, key press, and scroll events.
// It never blocks.
func (e *Engine) NotifyActivity() {
	if e == nil || e.clock == nil {
		return
	}
	e.clock.NotifyActivity()
}

// Session describes the session operation and its observable behavior.
//
// Session returns the currently stored session with parsed claims; the
// zero Session when none is stored. A stored token that fails to parse is
// reported as absent.
func (e *Engine) Session(ctx context.Context) (Session, error) {
	if e == nil || e.store == nil {
		return Session{}, ErrEngineNotReady
	}

	tok, err := e.store.Token(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	if tok == "" {
		return Session{}, nil
	}
	claims, err := token.Decode(tok)
	if err != nil {
		return Session{}, nil
	}
	return Session{Token: tok, Claims: claims}, nil
}

// State describes the state operation and its observable behavior.
//
// State reports the session clock's current state.
func (e *Engine) State() SessionState {
	if e == nil || e.clock == nil {
		return StateNoSession
	}
	return e.clock.State()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// adoptToken extracts the token field from an auth response, decodes its
// claims, and overwrites the stored pair.
func (e *Engine) adoptToken(ctx context.Context, resp *Response) (Session, error) {
	if resp == nil || len(resp.Body) == 0 {
		return Session{}, ErrAuthResponse
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil || out.Token == "" {
		return Session{}, ErrAuthResponse
	}

	claims, err := token.Decode(out.Token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if err := e.store.SetToken(ctx, out.Token); err != nil {
		return Session{}, fmt.Errorf("persist token: %w", err)
	}
	if err := e.store.SetRoleID(ctx, claims.RoleID); err != nil {
		return Session{}, fmt.Errorf("persist role: %w", err)
	}

	e.clock.setState(StateValid)
	e.setAuthenticated(true)
	return Session{Token: out.Token, Claims: claims}, nil
}

// runRefresh executes the refresh flow against the configured endpoint.
func (e *Engine) runRefresh(ctx context.Context) flows.RefreshResult {
	return flows.RunRefresh(ctx, flows.RefreshDeps{
		Token: e.store.Token,
		Post: func(ctx context.Context, bearer string) (int, []byte, error) {
			return e.dispatch.postBearer(ctx, e.config.Clock.RefreshEndpoint, bearer)
		},
		RoleOf: func(tok string) (int, error) {
			claims, err := token.Decode(tok)
			if err != nil {
				return 0, err
			}
			return claims.RoleID, nil
		},
		SaveToken: e.store.SetToken,
		SaveRole:  e.store.SetRoleID,
	})
}

// forceLogout erases the persisted session and notifies the unauthenticated
// transition. A concurrent call that was about to write the cleared storage
// simply has its result discarded; the next protected request fails
// preflight instead of succeeding with stale data.
func (e *Engine) forceLogout(ctx context.Context) {
	if err := e.store.Clear(ctx); err != nil {
		e.log.Warn().Err(err).Msg("forced logout could not clear store")
	}
	e.metrics.Inc(MetricForcedLogout)
	e.setAuthenticated(false)
}

// setAuthenticated notifies the listener only on actual transitions, which
// keeps repeated forced logouts idempotent from the application's view.
func (e *Engine) setAuthenticated(to bool) {
	if e.authed.Swap(to) == to {
		return
	}
	if e.listener != nil {
		e.listener(to)
	}
}
