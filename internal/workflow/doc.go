// Package workflow binds the stage graph to its handlers and exposes the
// operations the CLI calls.
//
// A Pipeline owns one artifact store, one generation backend and an optional
// run recorder. Run executes a single stage for a target through stageexec,
// which gates on the stage's prerequisites, skips stages whose output exists
// unless forced, and commits outputs only when the handler succeeds.
// RunThrough walks the graph in order up to a stage, and Status reports what
// each stage has produced and what still blocks it.
//
// Add a stage by extending the table in internal/stage and registering its
// handler in newHandlers.
package workflow
