// Package registry keeps a SQLite ledger of stage runs and the artifacts they
// produced (artifacts/registry.db). The registry is bookkeeping only: artifact
// files remain the source of truth and a missing registry never blocks a stage.
package registry
