// Package fault defines the closed set of error kinds reported to clients.
//
// Every domain failure is a *fault.Error with one of four kinds:
//
//	Validation     400  rule-specific message
//	NotFound       404  "<Entity> with ID <id> not found"
//	RouteNotFound  404  "Route <METHOD> <path> not found"
//	Internal       500  operation-supplied message
//
// Errors capture the call stack at construction. The HTTP layer renders the
// stack only when verbose errors are enabled.
package fault
