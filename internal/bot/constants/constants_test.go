package constants

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetCustomIDRoundTrip(t *testing.T) {
	customID := TargetCustomID(VouchStartPrefix, snowflake.ID(123456789012345678))

	prefix, target, ok := ParseTargetCustomID(customID)
	require.True(t, ok)
	assert.Equal(t, VouchStartPrefix, prefix)
	assert.Equal(t, snowflake.ID(123456789012345678), target)
}

func TestParseTargetCustomIDWithoutTarget(t *testing.T) {
	_, _, ok := ParseTargetCustomID(CreateTicketButtonID)
	assert.False(t, ok)
}

func TestParseTargetCustomIDInvalidTarget(t *testing.T) {
	prefix, _, ok := ParseTargetCustomID(VouchModalPrefix + ":not-a-snowflake")
	assert.False(t, ok)
	assert.Equal(t, VouchModalPrefix, prefix)
}
