// Package parser defines the contract every event source parser implements.
//
// A Parser turns one source's published schedule into validated events. The
// package also holds the helpers parsers share: Validate and FilterValid for
// structural checks, Base for fetching with uniform HTTP status handling, and
// Failure, the one error type parsers return for expected failure modes.
//
// Parsers are looked up by the source's parser type in a Registry. Concrete
// parsers live in subpackages and are added to a Registry by package builtin.
package parser
