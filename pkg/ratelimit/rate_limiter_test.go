package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowReply(t *testing.T) {
	t.Run("allowed request", func(t *testing.T) {
		allowed, count, remaining, err := parseWindowReply([]interface{}{int64(1), int64(45), int64(15)})
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 45, count)
		assert.Equal(t, 15, remaining)
	})

	t.Run("rejected request over the limit", func(t *testing.T) {
		allowed, count, remaining, err := parseWindowReply([]interface{}{int64(0), int64(75), int64(0)})
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 75, count)
		assert.Equal(t, 0, remaining)
	})

	t.Run("rejected request exactly at the limit", func(t *testing.T) {
		// The last allowed request and the first rejected one both report
		// count == limit; only the flag tells them apart.
		allowed, _, _, err := parseWindowReply([]interface{}{int64(0), int64(60), int64(0)})
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, _, _, err = parseWindowReply([]interface{}{int64(1), int64(60), int64(0)})
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("malformed replies are errors", func(t *testing.T) {
		_, _, _, err := parseWindowReply("nope")
		assert.Error(t, err)

		_, _, _, err = parseWindowReply([]interface{}{int64(1), int64(2)})
		assert.Error(t, err)

		_, _, _, err = parseWindowReply([]interface{}{int64(1), 3.5, int64(2)})
		assert.Error(t, err)
	})
}
