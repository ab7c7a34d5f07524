// Package story defines the documents that flow through the pipeline: the
// story spec and plot intent views, plan artifacts (spine, scenes, beats),
// continuity facts and locks, world and character detail documents, the
// style profile, the compiled context packet and continuity reports.
//
// Plan documents are validated with struct tags plus cross-field checks;
// failures are returned as services.SchemaError.
package story
