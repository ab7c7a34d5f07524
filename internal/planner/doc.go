// Package planner generates the structural plan of a story with the
// generation backend: the act/chapter spine, per-scene plans with the scenes
// index, and per-scene beats.
//
// Every generator follows the same loop: build the prompt from the input
// artifacts, parse the reply as JSON, validate it against the document's
// shape, and on failure send one repair prompt that lists the problems. A
// reply that is still invalid fails the stage with a SchemaError. Outputs and
// their meta sidecars are staged on the request batch and only reach the store
// once the stage succeeds.
package planner
