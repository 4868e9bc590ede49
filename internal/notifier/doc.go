// Package notifier announces newly published events.
//
// The Twitter notifier posts one tweet per event over OAuth 1.0a; the dry-run
// notifier prints the same text to a writer instead.
package notifier
