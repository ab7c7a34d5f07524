// Package seed scaffolds a workspace and turns default templates plus optional
// user overrides into the pipeline inputs (story spec and plot intent), along
// with a manifest of the seeds used and a report of the keys they changed.
package seed
