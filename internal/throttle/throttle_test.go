package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlocksAfterMaxFailures(t *testing.T) {
	l := New(time.Minute, 3)
	key := "student\x00alice\x00127.0.0.1"

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow(key), "attempt %d", i)
		l.Fail(key)
	}
	assert.False(t, l.Allow(key))
}

func TestKeysIndependent(t *testing.T) {
	l := New(time.Minute, 1)
	l.Fail("student\x00alice")
	assert.False(t, l.Allow("student\x00alice"))
	assert.True(t, l.Allow("student\x00bob"))
	assert.True(t, l.Allow("teacher\x00alice"))
}

func TestResetClears(t *testing.T) {
	l := New(time.Minute, 1)
	l.Fail("k")
	assert.False(t, l.Allow("k"))
	l.Reset("k")
	assert.True(t, l.Allow("k"))
}
