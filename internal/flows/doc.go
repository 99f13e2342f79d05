// Package flows contains pure-function orchestrators for the session
// watchdog's decisions.
//
// Each flow function (RunCheck, RunRefresh) accepts a typed dependency
// struct and returns a result struct with an outcome or failure kind. The
// root package maps kinds to sentinel errors, metrics, and logout side
// effects; the flows themselves stay side-effect free beyond their
// dependencies, which keeps them exhaustively testable with plain funcs.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency funcs.
package flows
