package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c := New("secret-a", 0)
	tok := c.Issue("alice", "")
	claims := c.Verify(tok)
	require.True(t, claims.Valid)
	assert.Equal(t, "alice", claims.Sub)
	assert.Empty(t, claims.Role)
}

func TestRoundTripRole(t *testing.T) {
	c := New("secret-t", 0)
	claims := c.Verify(c.Issue("ms-frizzle", "teacher"))
	require.True(t, claims.Valid)
	assert.Equal(t, "ms-frizzle", claims.Sub)
	assert.Equal(t, "teacher", claims.Role)
}

func TestWireFormat(t *testing.T) {
	c := New("secret-a", 0)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	tok := c.Issue("alice", "")
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Equal(t, `{"alg":"HS256","typ":"JWT"}`, string(header))

	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	assert.Equal(t, `{"sub":"alice","iat":1700000000000}`, string(body))
}

func TestTamperDetection(t *testing.T) {
	c := New("secret-a", 0)
	tok := c.Issue("alice", "")
	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		mutated := []byte(tok)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		assert.False(t, c.Verify(string(mutated)).Valid, "flipped byte %d", i)
	}
}

func TestSecretBinding(t *testing.T) {
	tok := New("secret-a", 0).Issue("alice", "")
	assert.False(t, New("secret-b", 0).Verify(tok).Valid)
}

func TestVerifyIsTotal(t *testing.T) {
	c := New("secret-a", 0)
	for _, tok := range []string{
		"",
		".",
		"..",
		"...",
		"a.b",
		"a.b.c",
		"a.b.c.d",
		"!!!.???.###",
		strings.Repeat(".", 100),
		"\x00\x01\x02",
	} {
		assert.False(t, c.Verify(tok).Valid, "token=%q", tok)
	}
}

// A correctly signed token whose payload is not JSON must still fail
// closed, not blow up.
func TestSignedGarbagePayload(t *testing.T) {
	c := New("secret-a", 0)
	data := headerSegment + "." + b64("not json at all")
	assert.False(t, c.Verify(data+"."+c.sign(data)).Valid)

	// Signed payload that is not even valid base64.
	data = headerSegment + "." + "!!!not-base64!!!"
	assert.False(t, c.Verify(data+"."+c.sign(data)).Valid)
}

func TestExpiry(t *testing.T) {
	c := New("secret-a", time.Hour)
	at := time.UnixMilli(1700000000000)
	c.now = func() time.Time { return at }
	tok := c.Issue("alice", "")
	require.True(t, c.Verify(tok).Valid)

	at = at.Add(time.Hour - time.Second)
	assert.True(t, c.Verify(tok).Valid)

	at = at.Add(2 * time.Second)
	assert.False(t, c.Verify(tok).Valid)
}

// Tokens minted before expiry support carry no exp claim and stay
// signature-only.
func TestLegacyTokenWithoutExp(t *testing.T) {
	legacy := New("secret-a", 0)
	legacy.now = func() time.Time { return time.UnixMilli(1000) }
	tok := legacy.Issue("alice", "")

	c := New("secret-a", time.Hour)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	assert.True(t, c.Verify(tok).Valid)
}
