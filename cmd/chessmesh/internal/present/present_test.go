package present

import (
	"errors"
	"testing"

	"github.com/chessmesh/chessmesh/chesserr"
	"github.com/stretchr/testify/assert"
)

func TestErrorSurfacesRecoverySuggestionForStructuredErrors(t *testing.T) {
	err := chesserr.New(chesserr.KindInvalidGameID, "game id %q is not a valid UUID", "nope")
	out := Error(err)
	assert.Contains(t, out, "nope")
	assert.Contains(t, out, "Suggestion: Supply a valid UUID v4 game id.")
}

func TestErrorFallsBackToPlainMessageForUnstructuredErrors(t *testing.T) {
	out := Error(errors.New("boom"))
	assert.Equal(t, "boom", out)
}

func TestErrorReturnsEmptyForNil(t *testing.T) {
	assert.Equal(t, "", Error(nil))
}
