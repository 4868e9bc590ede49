// Package coordinator runs every configured source's parser concurrently and
// merges the results.
//
// Each source is isolated: its parser is resolved from a Registry, attempted
// up to MaxRetries times with exponential backoff between retryable failures,
// and either contributes its events or exactly one SourceError, never both.
// After all sources finish, the merged events are limited to the window of
// today through today plus WindowDays in the reference time zone and sorted
// by date, then start time.
//
// Failure kinds and whether they are retried:
//
//	Configuration Error  unknown parser type or bad parser_config  no retry
//	Network Timeout      attempt exceeded TimeoutPerRequest         retry
//	Network Error        transport failure                          retry
//	Parser Error         *parser.Failure                            no retry
//	Unexpected Error     anything else, including panics            retry
package coordinator
