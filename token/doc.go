// Package token reads claims out of MaxiTaxi bearer tokens without contacting
// the server.
//
// Decode is a pure, NON-AUTHORITATIVE parse: no signature verification is
// performed client-side. The trust boundary is the HTTPS transport and the
// issuing server, which verifies the signature on every protected call. A
// forged-but-well-formed token cannot be distinguished locally, so any
// role-based gating built on these claims is a convenience, not a security
// boundary.
//
// # Architecture boundaries
//
// This package owns claim extraction and expiry arithmetic. It does NOT
// persist tokens, schedule refreshes, or decide session validity policy;
// those responsibilities belong to the store and the session clock.
//
// # What this package must NOT do
//
//   - Import the root package or any sibling package (no upward imports).
//   - Verify signatures or pretend to; callers must not treat a successful
//     Decode as proof of authenticity.
package token
