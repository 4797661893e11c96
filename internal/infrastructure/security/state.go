package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// StateSigner produces and checks HMAC-signed OAuth state values.
type StateSigner struct {
	key []byte
}

func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{key: []byte(secret)}
}

// New returns a fresh random state of the form "<nonce>.<signature>".
func (s *StateSigner) New() (string, error) {
	raw, err := RandomToken(24)
	if err != nil {
		return "", err
	}
	return raw + "." + s.sign(raw), nil
}

// Verify reports whether state carries a valid signature.
func (s *StateSigner) Verify(state string) bool {
	raw, sig, ok := strings.Cut(state, ".")
	if !ok || raw == "" {
		return false
	}
	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	want, _ := base64.RawURLEncoding.DecodeString(s.sign(raw))
	return hmac.Equal(want, got)
}

func (s *StateSigner) sign(raw string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// RandomToken returns n random bytes encoded as unpadded base64url.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
