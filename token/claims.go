package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is an exported constant or variable used by the session engine.
var ErrMalformed = errors.New("token: malformed bearer token")

// Claims defines a public type used by MaxiTaxi client APIs.
//
// Claims instances are produced by Decode and then treated as immutable
// unless documented otherwise.
type Claims struct {
	SubjectID int64
	RoleID    int
	Email     string
	Exp       int64
}

// Decode describes the decode operation and its observable behavior.
//
// Decode parses the three-part JWT framing and extracts the id, roleId,
// email, and exp claims. The role claim is read from "roleId" with a
// fallback to "role_id" for older server builds.
// Decode may return an error wrapping ErrMalformed when the token cannot be
// parsed or a required claim is missing; it performs no signature
// verification and no I/O, and can be used concurrently.
func Decode(tok string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	id, ok := numericClaim(claims, "id")
	if !ok {
		return nil, fmt.Errorf("%w: missing id claim", ErrMalformed)
	}
	roleID, ok := numericClaim(claims, "roleId")
	if !ok {
		roleID, ok = numericClaim(claims, "role_id")
	}
	if !ok {
		return nil, fmt.Errorf("%w: missing roleId claim", ErrMalformed)
	}
	email, ok := claims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing email claim", ErrMalformed)
	}
	exp, ok := numericClaim(claims, "exp")
	if !ok {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}

	return &Claims{
		SubjectID: int64(id),
		RoleID:    int(roleID),
		Email:     email,
		Exp:       int64(exp),
	}, nil
}

// ExpiresAt describes the expiresat operation and its observable behavior.
//
// ExpiresAt does not mutate shared global state and can be used concurrently.
func (c *Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// Expired describes the expired operation and its observable behavior.
//
// Expired reports whether the token is expired at now.
// Expired does not mutate shared global state and can be used concurrently.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt().After(now)
}

// TimeToExpiry describes the timetoexpiry operation and its observable behavior.
//
// TimeToExpiry returns the remaining lifetime at now; negative when expired.
// TimeToExpiry does not mutate shared global state and can be used concurrently.
func (c *Claims) TimeToExpiry(now time.Time) time.Duration {
	return c.ExpiresAt().Sub(now)
}

func numericClaim(m jwt.MapClaims, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
