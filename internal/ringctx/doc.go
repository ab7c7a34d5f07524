// Package ringctx compiles the context packet a scene is drafted from.
//
// A packet has three rings. Ring A carries the scene's own directives and is
// never truncated. Ring C carries continuity locks, facts and world detail;
// Ring B carries the surrounding narrative. Ring C and Ring B content is
// expressed as ranked blocks that are consumed greedily against the token
// budget: a block may offer several variants (richest first) and blocks that
// share a chain are dropped together once one of them does not fit.
//
// Compile is deterministic. It never calls a generation backend and the
// packet holds no timestamps, so equal inputs encode to identical bytes.
package ringctx
