// Package artifact addresses and persists pipeline artifacts.
//
// A Ref names an artifact kind plus its scene or chapter index and maps to a
// fixed path under the project root. Store implementations cover the local
// filesystem (atomic temp-file writes guarded by a workspace flock), memory
// (tests and dry runs) and Redis (shared storage). Stages stage their outputs
// in a Batch and commit them only after succeeding, together with a Meta
// sidecar recording the run id, model, backend and input hashes.
package artifact
