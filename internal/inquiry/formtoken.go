// internal/inquiry/formtoken.go
//
// Stateless contact-form tokens.
//
// Context
//   The site embeds a token when it renders the contact form.  On submit we
//   check that the token is authentic, that at least MinFillTime has passed
//   (bots post instantly), and that it is younger than MaxAge:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(secret, nonce+unixMicro+tenant) )
//
//   The tenant id is mixed into the MAC so a token from one site cannot be
//   replayed against another.  No server-side state, multi-instance safe.
//
//------------------------------------------------------------------------------

package inquiry

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	tokenBytes = 16 + 8 + sha256.Size // nonce + ts + sig

	// MinFillTime is the fastest plausible human submission.
	MinFillTime = 3 * time.Second
	// MaxAge bounds how long a rendered form stays valid.
	MaxAge = 2 * time.Hour
)

var (
	ErrTokenInvalid = errors.New("inquiry: form token invalid")
	ErrTooFast      = errors.New("inquiry: form submitted too quickly")
	ErrExpired      = errors.New("inquiry: form token expired")
)

// Tokens issues and verifies form tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// TokenOption customises Tokens.
type TokenOption func(*Tokens)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption { return func(t *Tokens) { t.now = now } }

// NewTokens derives the form key from secret so the raw value is never
// used for two purposes.
func NewTokens(secret string, opts ...TokenOption) *Tokens {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("sitewerk contact form"))
	t := &Tokens{secret: mac.Sum(nil), now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Issue returns a fresh token for tenantID.
func (t *Tokens) Issue(tenantID string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(t.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, t.sign(nonce, ts, tenantID)...)
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify checks tok for tenantID.
func (t *Tokens) Verify(tok, tenantID string) error {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return ErrTokenInvalid
	}
	nonce, ts, sig := raw[:16], raw[16:24], raw[24:]
	if !hmac.Equal(sig, t.sign(nonce, ts, tenantID)) {
		return ErrTokenInvalid
	}

	age := t.now().Sub(time.UnixMicro(int64(binary.BigEndian.Uint64(ts))))
	switch {
	case age < -time.Minute: // clock skew
		return ErrTokenInvalid
	case age < MinFillTime:
		return ErrTooFast
	case age > MaxAge:
		return ErrExpired
	}
	return nil
}

func (t *Tokens) sign(nonce, ts []byte, tenantID string) []byte {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write(nonce)
	mac.Write(ts)
	mac.Write([]byte(tenantID))
	return mac.Sum(nil)
}
