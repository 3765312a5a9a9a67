package sqlutil

import (
	"testing"

	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lap struct {
	Label  string `json:"label"`
	TimeMs int64  `json:"timeMs"`
}

func TestNullRawMessageRoundTrip(t *testing.T) {
	in := []lap{{Label: "Lap 1", TimeMs: 1200}, {Label: "Lap 2", TimeMs: 2500}}

	raw, err := ToNullRawMessage(in)
	require.NoError(t, err)
	require.True(t, raw.Valid, "expected valid JSONB value")

	var out []lap
	require.NoError(t, FromNullRawMessage(raw, &out))
	assert.Equal(t, in, out)
}

func TestToNullRawMessage_Nil(t *testing.T) {
	raw, err := ToNullRawMessage(nil)
	require.NoError(t, err)
	assert.False(t, raw.Valid, "nil should map to SQL NULL")
}

func TestFromNullRawMessage_NullLeavesDestination(t *testing.T) {
	out := []lap{{Label: "keep"}}
	require.NoError(t, FromNullRawMessage(pqtype.NullRawMessage{}, &out))
	assert.Equal(t, []lap{{Label: "keep"}}, out)
}
