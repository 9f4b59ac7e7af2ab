// Package ledger is the single sequential authority shared by the reward,
// roulette, and trade engines.
//
// Every state-changing action runs inside Execute under one exclusive lock.
// The action reads and writes staged copies of the engine tables; it mutates
// them only by emitting events whose appliers do the writes. On success the
// events are sealed into the hash chain, appended to the journal in one
// batch, flushed into the committed tables, and published to subscribers.
// On any error nothing is flushed, so a failed action leaves no trace.
package ledger
