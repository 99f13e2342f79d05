package maxitaxi

import (
	"encoding/json"
	"time"

	"github.com/JakubNatonek/MaxiTaxi-sub000/token"
)

// Role defines a public type used by MaxiTaxi client APIs.
//
// Role is the closed role enumeration embedded in token claims. It is
// trusted as decoded, with no server-side cross-check, so role-based
// gating built on it is a convenience, not a security boundary.
type Role int

const (
	// RoleAdmin is an exported constant or variable used by the session engine.
	RoleAdmin Role = 1
	// RolePassenger is an exported constant or variable used by the session engine.
	RolePassenger Role = 2
	// RoleDriver is an exported constant or variable used by the session engine.
	RoleDriver Role = 3
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RolePassenger:
		return "passenger"
	case RoleDriver:
		return "driver"
	default:
		return "unknown"
	}
}

// Known describes the known operation and its observable behavior.
//
// Known does not mutate shared global state and can be used concurrently.
func (r Role) Known() bool {
	return r == RoleAdmin || r == RolePassenger || r == RoleDriver
}

// SessionState defines a public type used by MaxiTaxi client APIs.
//
// SessionState is the watchdog state machine over the current session.
type SessionState int32

const (
	// StateNoSession is an exported constant or variable used by the session engine.
	StateNoSession SessionState = iota
	// StateValid is an exported constant or variable used by the session engine.
	StateValid
	// StateExpiringSoon is an exported constant or variable used by the session engine.
	StateExpiringSoon
	// StateRefreshing is an exported constant or variable used by the session engine.
	StateRefreshing
	// StateExpired is an exported constant or variable used by the session engine.
	StateExpired
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently.
func (s SessionState) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateValid:
		return "valid"
	case StateExpiringSoon:
		return "expiring_soon"
	case StateRefreshing:
		return "refreshing"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session defines a public type used by MaxiTaxi client APIs.
//
// Claims is present if and only if Token is present and parsed successfully;
// a token that fails to parse is treated as absent and forces a logout.
type Session struct {
	Token  string
	Claims *token.Claims
}

// Role describes the role operation and its observable behavior.
//
// Role does not mutate shared global state and can be used concurrently.
func (s Session) Role() Role {
	if s.Claims == nil {
		return 0
	}
	return Role(s.Claims.RoleID)
}

// Active describes the active operation and its observable behavior.
//
// Active reports whether the session carries parsed claims that are not yet
// expired at now.
// Active does not mutate shared global state and can be used concurrently.
func (s Session) Active(now time.Time) bool {
	return s.Token != "" && s.Claims != nil && !s.Claims.Expired(now)
}

// Registration defines a public type used by MaxiTaxi client APIs.
//
// Registration is the plain payload for the register endpoint; the
// dispatcher encrypts it into an envelope before it leaves the process.
type Registration struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Role      Role   `json:"roleId"`
}

// Response defines a public type used by MaxiTaxi client APIs.
//
// Exactly one of Body and Text is populated: Body for JSON responses
// (decrypted when the server sent an envelope, as-is otherwise), Text for
// non-JSON bodies.
type Response struct {
	StatusCode int
	Body       json.RawMessage
	Text       string
	Encrypted  bool
}

// AuthListener defines a public type used by MaxiTaxi client APIs.
//
// AuthListener is invoked on every transition between the authenticated and
// unauthenticated areas: successful login or registration, explicit logout,
// forced logout on expiry or 401. It runs on the calling goroutine and must
// not block.
type AuthListener func(authenticated bool)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
