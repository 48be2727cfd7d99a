package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedThrottle(t *testing.T) {
	clock := &fakeNow{t: time.Unix(1700000000, 0)}
	th := newKeyedThrottle(30 * time.Second)
	th.now = clock.now

	assert.True(t, th.Allow("a"))
	assert.False(t, th.Allow("a"))

	// Independent keys do not interfere.
	assert.True(t, th.Allow("b"))

	clock.advance(29 * time.Second)
	assert.False(t, th.Allow("a"))

	clock.advance(time.Second)
	assert.True(t, th.Allow("a"))
	assert.False(t, th.Allow("a"))
}
