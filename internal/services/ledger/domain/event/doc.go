// Package event defines the envelope recorded for every committed ledger
// change and the hash chain that links journaled events together.
//
// Engines never write state directly: they emit events, registered appliers
// fold those events into tables, and the same appliers rebuild state when the
// journal is replayed. Sequence numbers and hashes are assigned at commit.
package event
