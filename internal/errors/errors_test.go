package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("Success_PreservesErrorChain", func(t *testing.T) {
		wrapped := Wrap(ErrUnauthorized, "auth token verification failed")

		assert.True(t, Is(wrapped, ErrUnauthorized))
		assert.Contains(t, wrapped.Error(), "auth token verification failed")
	})

	t.Run("Success_NilErrorReturnsNil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("Success_DoubleWrapStillMatchesSentinel", func(t *testing.T) {
		inner := Wrap(ErrRateLimited, "sliding window exceeded")
		outer := Wrap(inner, "request rejected")

		assert.True(t, Is(outer, ErrRateLimited))
		assert.False(t, Is(outer, ErrUnauthorized))
	})
}
