package maxitaxi

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyDerivation is an exported constant or variable used by the session engine.
	ErrKeyDerivation = errors.New("cipher key derivation failed")
	// ErrMalformedToken is an exported constant or variable used by the session engine.
	ErrMalformedToken = errors.New("malformed bearer token")
	// ErrDecryption is an exported constant or variable used by the session engine.
	ErrDecryption = errors.New("response decryption failed")
	// ErrSessionExpired is an exported constant or variable used by the session engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrAuthResponse is an exported constant or variable used by the session engine.
	ErrAuthResponse = errors.New("auth response missing token")
	// ErrEngineNotReady is an exported constant or variable used by the session engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// RequestError defines a public type used by MaxiTaxi client APIs.
//
// RequestError reports a non-2xx, non-401 server response. Message is taken
// from the server's JSON error body when one is present, otherwise
// synthesized from the status code and raw text.
type RequestError struct {
	StatusCode int
	Message    string
}

// Error describes the error operation and its observable behavior.
//
// Error does not mutate shared global state and can be used concurrently.
func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
}
