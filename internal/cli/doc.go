// Package cli implements the command-line interface for around-the-grounds.
//
// The root command scrapes every configured source through the coordinator
// and prints the coming week's schedule as text, JSON, web data or iCalendar.
// The sources command lists parser types and configured sources, and
// announce posts events that were not in the previous run's snapshot.
//
// Every flag can also be set from the environment with an ATG_ prefix
// (ATG_MAX_RETRIES=5) or from a settings file passed with --settings.
package cli
