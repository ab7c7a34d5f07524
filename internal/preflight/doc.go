// Package preflight provides readiness checks for the workspace and the
// services StoryCodex depends on.
//
// The CLI "storycodex doctor" command runs RunAll and prints one line per
// check. Checks run concurrently and never fail the command themselves; a
// failing check is reported with a detail explaining what is wrong.
package preflight
