// Package services defines shared utilities consumed by the pipeline stages
// and the generation backend.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, scene ids, run ids and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, and the typed pipeline
//     errors (SchemaError, MissingDependencyError, ContextBudgetExceeded,
//     GenerationError, TimeoutError) that callers match with errors.As.
//
// Every typed error unwraps to one of the markers so callers that only care
// about the class of failure can use errors.Is.
package services
