// Package tree implements the document value shared by seed defaults,
// overrides and resolved inputs.
//
// A Value is a mapping, a sequence, a scalar or null. Documents decode from
// JSON (numbers keep their decimal text) or YAML, merge with Merge, diff with
// DiffKeys, and encode canonically: sorted mapping keys, no HTML escaping, so
// equal documents yield identical bytes.
package tree
