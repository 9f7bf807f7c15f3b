package executor

import (
	"context"
)

// Runtime is the host integration surface the Executor resolves fields
// through.
//
// General contract
//   - The Executor works breadth-first. At each depth it drains synchronous
//     fields via ResolveSync, then calls BatchResolveAsync once with every
//     async task collected at that depth. The next depth starts only after
//     the batch returns and its results are completed.
//   - ResolveSync is never invoked for fields marked async, and
//     BatchResolveAsync is only invoked with at least one task.
//   - Errors returned from any method become located GraphQL errors. An error
//     implementing Extensions() map[string]any contributes the error's
//     extensions. A failing Non-Null field nullifies its nearest nullable
//     ancestor.
//   - Implementations must be safe for concurrent operations and must not
//     mutate source or args.
//
// Object/field identifiers
//   - objectType is the GraphQL type name (e.g. "User"); for root fields it is
//     the root type name (e.g. "Query").
//   - field is the exposed field name on that type (e.g. "posts").
//   - source is the parent object value (nil for root).
//   - args is the map of argument names to already-coerced Go values.
//
// Partial success and ordering
//   - BatchResolveAsync returns one AsyncResolveResult per task, in task
//     order. Each result is independent.
//
// Cancellation
//   - Tasks whose response paths were nullified are filtered out before the
//     batch is issued. Implementations only need to respect ctx.
type Runtime interface {
	// ResolveSync resolves a synchronous field value immediately.
	//
	// The returned raw value is completed by the Executor, including nested
	// selection sets. Return (nil, nil) to produce a GraphQL null.
	ResolveSync(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// BatchResolveAsync resolves one execution depth of async field tasks.
	//
	// Requirements:
	// - Return len(results) == len(tasks).
	// - results[i] corresponds to tasks[i].
	// - Return independent errors per element without failing the whole batch.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value according to the named type.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// ExecutionScope is implemented by runtimes that keep state for the length
// of one execution, such as a memo of upstream responses. ExecuteRequest calls
// BeginExecution once and passes the returned context to every resolver call
// of that execution.
type ExecutionScope interface {
	BeginExecution(ctx context.Context) context.Context
}

type AsyncResolveTask struct {
	// ObjectType is the parent GraphQL object type name for the field.
	ObjectType string
	// Field is the GraphQL field name to resolve.
	Field string
	// Source is the parent object value (nil for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
}

type AsyncResolveResult struct {
	// Value is the resolved raw value prior to completion, or nil on error.
	Value any
	// Error contains a failure specific to this element; other elements in the
	// same batch are unaffected.
	Error error
}
