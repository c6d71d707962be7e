// Package executor implements a breadth-first GraphQL executor that hands
// asynchronous work to its Runtime one depth at a time.
//
// # Execution model
//
// Fields are classified by schema.Field.Async. Synchronous fields are
// projections off an already loaded parent and resolve immediately through
// Runtime.ResolveSync; their object results expand in place without adding
// depth. Asynchronous fields (root collections, relation fields) are queued.
// Once the current depth has nothing synchronous left to expand, every queued
// task is passed to Runtime.BatchResolveAsync in a single call. Completing
// those results discovers the next depth's tasks, and the loop repeats until
// nothing is queued.
//
// For an operation whose deepest chain crosses d asynchronous fields,
// BatchResolveAsync runs exactly d times regardless of how many parents
// each depth has. A runtime that backs relation fields with batching loaders
// flushes them once per call and so issues one storage round-trip per
// relation per depth.
//
// Mutation root fields run serially. Each one, together with every async
// field below it, completes before the next root field is resolved.
//
// # Completion and errors
//
// Values are completed per GraphQL: lists element by element, leaves through
// Runtime.SerializeLeafValue, objects by expanding their selection set.
// Errors are collected as located errors, keeping the message and extensions
// of *language.Error values. A null in a non-null position nulls the nearest
// nullable ancestor field or list item, whether it was built synchronously
// or filled in by a later batch. Data itself becomes null only when no such
// ancestor exists. Tasks queued under a nulled path are dropped before the
// next batch.
//
// Arguments and variables are coerced against the schema before any
// resolver sees them. A field whose arguments fail coercion is not resolved.
//
// Abstract types are not executed; the schemas served by this module are
// made of objects, scalars, enums and input objects only.
package executor
