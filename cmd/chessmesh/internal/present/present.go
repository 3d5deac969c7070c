// Package present formats errors for the chessmesh CLI's stderr output,
// grounded on the original CLI's error_handler: a structured chesserr.Error
// surfaces its recovery suggestion alongside the message, never just the raw
// protocol vocabulary a user can't act on.
package present

import (
	"fmt"

	"github.com/chessmesh/chessmesh/chesserr"
)

// Error renders err the way the CLI prints a top-level command failure.
func Error(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := chesserr.As(err)
	if !ok {
		return err.Error()
	}
	return fmt.Sprintf("%s\nSuggestion: %s", ce.Error(), ce.RecoverySuggestion())
}
