// Package main hosts the StoryCodex CLI entrypoint and command graph.
//
// The Cobra command tree maps each pipeline stage to a command (seed apply,
// plan spine|scenes|beats, build-context, write scene, check continuity)
// and adds workspace scaffolding, status, doctor and configuration helpers.
// It resolves configuration, builds the logger, takes the workspace lock for
// mutating commands and hands the real work to internal/workflow.
//
// Keep this package lean: add behavior to the internal packages first, then
// surface it here through a command or flag.
package main
