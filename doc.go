// Package maxitaxi is the session and secure channel SDK for the MaxiTaxi
// ride-hailing service: bearer-token lifecycle tracking, proactive refresh
// driven by a timer and user-activity signals, and transparent AES-CBC
// envelope encryption on every protected request.
//
// Every screen of the client talks to the server through the two primitives
// the [Engine] exposes, [Engine.Send] and [Engine.Get]. The engine is built
// once through [Builder.Build] and is safe to call from multiple goroutines
// afterward.
//
// # Architecture boundaries
//
// maxitaxi is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Session, Response, MetricsSnapshot, etc.). Check and
// refresh orchestration lives under internal/ and is never exported; the
// envelope, token, and store packages are leaf packages with no upward
// imports.
//
// # What this package must NOT do
//
//   - Retry failed requests or refreshes; the only self-healing behavior is
//     the proactive refresh before expiry.
//   - Swallow errors: every failure reaches the caller typed, after the
//     logout side effect where one applies.
//   - Render UI or interpret decrypted payloads; screens own both.
package maxitaxi
