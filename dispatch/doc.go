// Package dispatch routes every reported failure to the single best
// registered handler and executes the recovery the handler decides on.
//
// # Routing model
//
// Handlers are configuration objects: a service match (exact or "*"), an
// error-type match (membership, substring, or "*"), and a priority. On each
// reported error the dispatcher extracts a stable code, picks the
// highest-priority matching handler, and runs it. No matching handler, or a
// handler panic, degrades to a generic fallback result; HandleError itself
// never fails.
//
// # Recovery execution
//
// Result actions run sequentially in ascending action-priority order, each
// honoring its own delay. A failing action is logged and skipped; execution
// is best-effort, not transactional. When a result propagates to the
// authentication or session service the session manager's authenticated flag
// is dropped unconditionally, independent of any logout action.
package dispatch
