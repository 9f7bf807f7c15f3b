// Package executor implements a breadth-first, batch-friendly GraphQL executor
// with runtime hooks for synchronous resolution, depth-wise batching of
// upstream work and leaf serialization.
//
// # Overview
//
// Execution proceeds level by level:
//   - Synchronous fields (constants, inlined and passthrough values) expand
//     immediately without adding batch depth.
//   - Asynchronous fields (upstream HTTP) encountered at the current depth are
//     resolved together in a single call to Runtime.BatchResolveAsync.
//   - Values are completed per GraphQL rules (lists, leafs, objects), including
//     Non-Null propagation.
//   - Located errors accumulate while the rest of the response succeeds.
//
// # Preparation
//
// Before execution, the executor chooses the operation (by name, or the only
// one when unnamed), coerces variables against the operation's variable
// definitions and picks the root type. Variable errors stop execution.
// Subscriptions are not supported.
//
// # Execution Model
//
// The schema conveys the sync/async split via schema.Field.Async. The cycle
// below repeats until no async task is pending:
//
//	A. Sync expansion
//	   - Sync fields call Runtime.ResolveSync and complete immediately,
//	     descending into objects without increasing depth.
//	   - Async fields become AsyncResolveTasks queued for this depth.
//
//	B. Batch execution
//	   - Queued tasks not under a nullified path are passed to
//	     Runtime.BatchResolveAsync exactly once. Results are completed in task
//	     order; their async children are queued for the next batch.
//
//	C. Non-Null propagation and pruning
//	   - A Non-Null violation at path p sets the nearest nullable ancestor to
//	     null and tombstones that path, dropping tasks queued under it. With
//	     no nullable ancestor the whole data is null.
//
// For a query whose async depth is d, BatchResolveAsync is invoked exactly d
// times.
//
// # Errors and Partial Success
//
// Errors carry message, path and, when the resolver error exposes them,
// extensions. A nullable field that fails is set to null and execution
// continues.
package executor
