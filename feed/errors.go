package feed

import "fmt"

// ConfigurationError reports a structural mismatch (malformed descriptor or
// missing mandatory header column). It aborts the whole feed parse before
// any row is processed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "feed configuration: " + e.Reason
}

// RowValidationError reports a single row failing coercion or range checks.
// Decoders absorb it: the row is skipped and parsing continues.
type RowValidationError struct {
	Line   int
	Reason string
}

func (e *RowValidationError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}
