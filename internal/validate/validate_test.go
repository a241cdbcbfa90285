package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	var c Collector
	assert.NoError(t, c.Err())

	c.Add("rules[0].open", CodeInvalid, "open must be HH:MM, got %q", "9am")
	c.Add("sightId", CodeRequired, "sightId is required")

	err := c.Err()
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 2)
	assert.Equal(t, `open must be HH:MM, got "9am"`, verr.Errors[0].Message)
	assert.Equal(t, `validation failed: rules[0].open: open must be HH:MM, got "9am"; sightId: sightId is required`, err.Error())
}
