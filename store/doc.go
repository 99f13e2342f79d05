// Package store persists the client session pair (bearer token and derived
// role id) behind a single read/write/clear contract.
//
// The pair is the one shared mutable resource of the SDK: the session clock,
// the dispatcher, and the lifecycle controller all read it, and refresh and
// logout overwrite it. Keeping every access behind [Store] (injected by the
// builder, owned by the engine) is what makes that sharing safe; nothing else
// in the module touches the persisted state directly.
//
// Three implementations ship: [Memory] for tests and throwaway sessions,
// [File] for durable origin-scoped storage that survives restarts, and
// [Redis] for headless deployments that share one session across processes.
//
// # What this package must NOT do
//
//   - Import the root package or any sibling package (no upward imports).
//   - Interpret token contents; claims parsing belongs to the token package.
//   - Decide when to clear; logout policy belongs to the engine.
package store
