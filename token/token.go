// Package token mints and checks the compact signed session tokens that
// back the portal's cookie sessions.
//
// The wire format is the JWT shape the original portal emitted:
// base64url(header) "." base64url(payload) "." base64url(signature),
// HMAC-SHA256 over the first two segments, header fixed to
// {"alg":"HS256","typ":"JWT"}, and iat carried in epoch milliseconds.
// No state is held server-side; a token is valid exactly when its
// signature checks out under the realm secret and its exp (if present)
// has not passed. Tokens without an exp claim predate expiry support
// and verify on signature alone.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

type (
	// Codec signs and verifies tokens for a single realm.
	Codec struct {
		secret []byte
		ttl    time.Duration

		now func() time.Time
	}

	// Claims is the outcome of Verify. Valid is false for anything
	// that is not a well-formed, correctly signed, unexpired token.
	Claims struct {
		Valid bool
		Sub   string
		Role  string
	}

	payload struct {
		Sub  string `json:"sub"`
		Role string `json:"role,omitempty"`
		Iat  int64  `json:"iat"`
		Exp  int64  `json:"exp,omitempty"`
	}
)

var headerSegment = b64(`{"alg":"HS256","typ":"JWT"}`)

// New returns a Codec for the given realm secret. A ttl of zero mints
// tokens without an exp claim.
func New(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token for sub. role is embedded as the role claim when
// non-empty (the teacher realm sets it, the student realm does not).
func (c *Codec) Issue(sub, role string) string {
	iat := c.now().UnixMilli()
	p := payload{Sub: sub, Role: role, Iat: iat}
	if c.ttl > 0 {
		p.Exp = iat + c.ttl.Milliseconds()
	}
	body, _ := json.Marshal(p)
	data := headerSegment + "." + b64(string(body))
	return data + "." + c.sign(data)
}

// Verify checks tok and extracts its claims. It is total: any input,
// including the empty string, yields Claims{Valid: false} rather than
// an error.
func (c *Codec) Verify(tok string) Claims {
	if tok == "" {
		return Claims{}
	}
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return Claims{}
	}
	expected := c.sign(parts[0] + "." + parts[1])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return Claims{}
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Claims{}
	}
	if p.Exp > 0 && c.now().UnixMilli() > p.Exp {
		return Claims{}
	}
	return Claims{Valid: true, Sub: p.Sub, Role: p.Role}
}

func (c *Codec) sign(data string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
