// Package event provides the normalized event and source descriptor types.
//
// Every parser emits *Event values for one Source. Events carry naive reference-zone
// dates (see package tz) so they sort and filter identically on any host. Each event is
// assigned a deterministic SHA1-based ID from its source key, date and name, enabling
// reliable tracking across runs through snapshot diffing.
package event
