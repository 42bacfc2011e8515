// Package planner implements the precondition gate of a derivation run.
//
// Before any structure is created, the gate checks the structure set against
// the protocol and decides which parts of the derivation table may run. It
// never mutates the store.
//
// Key responsibilities:
//   - Report every missing mandatory input, not just the first
//   - Refuse to overwrite mandatory outputs left by a previous run
//   - Skip optional branches whose inputs are absent or whose outputs exist
//   - Propagate skips to branches that depend on a skipped branch
package planner
