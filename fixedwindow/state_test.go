package fixedwindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowEncoding_RoundTrip(t *testing.T) {
	w := window{
		Count:    42,
		Start:    time.Unix(0, 1700000000123456789),
		Duration: time.Minute,
	}

	decoded, ok := decodeWindow(encodeWindow(w))
	require.True(t, ok)
	assert.Equal(t, w.Count, decoded.Count)
	assert.True(t, w.Start.Equal(decoded.Start))
	assert.Equal(t, w.Duration, decoded.Duration)
}

func TestDecodeWindow_Invalid(t *testing.T) {
	cases := []string{
		"",
		"v2|1|2|3",
		"v1|",
		"v1|abc|2|3",
		"v1|1|nope|3",
		"v1|1|2|nope",
		"v1|1|2",
		"garbage",
	}
	for _, s := range cases {
		_, ok := decodeWindow(s)
		assert.False(t, ok, "input %q should not decode", s)
	}
}

func TestWindow_ExpiredAt(t *testing.T) {
	start := time.Now()
	w := window{Count: 1, Start: start, Duration: time.Minute}

	assert.False(t, w.expiredAt(start.Add(59*time.Second)))
	assert.True(t, w.expiredAt(start.Add(time.Minute)), "boundary counts as expired")
	assert.True(t, w.expiredAt(start.Add(2*time.Minute)))
	assert.Equal(t, start.Add(time.Minute), w.resetAt())
}
