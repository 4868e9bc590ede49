// Package storage provides JSON-based persistence for event snapshots.
//
// Each site keeps one snapshot file (snapshot_<site>.json) holding the events
// seen by its last successful run. The announce command diffs the current
// schedule against it so only newly published events are announced.
// The default storage location is ~/.local/share/around-the-grounds/.
package storage
