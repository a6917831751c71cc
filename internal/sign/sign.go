// Package sign implements the shared-secret signature used by the phone API.
//
// A signature binds a millisecond timestamp to the secret:
//
//	urlquery(base64(HMAC-SHA256(secret, "<timestamp>\n<secret>")))
//
// Both parties derive it independently, so the receiver accepts an envelope
// only if its sign field matches the one recomputed from its timestamp.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strconv"
	"time"
)

// Clock supplies the signing time in milliseconds since the Unix epoch.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// FixedClock always returns the same instant.
type FixedClock int64

func (c FixedClock) Now() int64 {
	return int64(c)
}

// Signer computes and checks signatures for one secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer for the given shared secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) mac(timestamp int64) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte{'\n'})
	h.Write(s.secret)
	return h.Sum(nil)
}

// Sign returns the transport-safe signature for timestamp.
func (s *Signer) Sign(timestamp int64) string {
	return url.QueryEscape(base64.StdEncoding.EncodeToString(s.mac(timestamp)))
}

// Verify reports whether sign is the signature of timestamp.
func (s *Signer) Verify(timestamp int64, sign string) bool {
	return hmac.Equal([]byte(s.Sign(timestamp)), []byte(sign))
}
