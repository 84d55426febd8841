// Package worker implements the worker-side half of the source dispatch
// protocol: named per-type operations a source invokes through an
// asynchronous, cancellable dispatcher.
//
// A WorkerSource exposes a set of named handlers (at minimum "loadTile").
// Handlers are registered in a Router under a typed Route{Type, Method}
// command, which renders as the conventional "type.method" routing key for
// dynamic or third-party callers.
//
// Key properties:
//   - Single-hop RPC: callers invoke a named operation and receive exactly
//     one callback result; worker state is never introspected directly.
//   - Worker failures travel on the callback error channel and never tear
//     down the dispatch channel itself.
//   - An unresolvable route is an UnknownRouteError: a caller bug, surfaced
//     through the callback and logged, never silently swallowed.
//   - Cancellation is cooperative and best-effort. The CancelFunc returned
//     by Send cancels the operation's context; the callback may or may not
//     still fire afterwards, and callers must tolerate either outcome.
package worker
