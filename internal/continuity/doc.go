// Package continuity checks scene prose against the recorded facts and locks.
//
// The checker is deterministic and works sentence by sentence: it finds the
// entity a sentence talks about (carrying the last named entity across
// pronoun sentences of the same paragraph), looks for cue words of that
// entity's recorded attributes, and compares the value the prose states with
// the recorded one. Contradictions of locked facts are lock violations;
// other contradictions are fact mismatches. Capitalized names the packet
// never introduced are reported as unknown references.
//
// Findings are data. Check never edits the prose or the fact table; the
// proposed changes go into a Patch for a human to apply.
package continuity
