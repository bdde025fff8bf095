// Package keycodec generates and verifies LPRIME license keys.
//
// A key has the shape PREFIX-PLANCODE-RAND1-RAND2-CHECKSUM, for example
// LPRIME-MENSA-3F9A1-C04B-7D2E. CHECKSUM is the first four uppercase hex
// characters of HMAC-SHA256(secret, "PLANCODE-RAND1-RAND2"). The checksum
// catches typos and casual forgeries; the database lookup remains the
// authority on whether a key exists.
package keycodec

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	Prefix    = "LPRIME"
	Delimiter = "-"

	planCodeLen = 5
	rand1Len    = 5
	rand2Len    = 4
	checksumLen = 4
	fieldCount  = 5
)

var (
	ErrEmptyPlanID   = errors.New("plan id is required")
	ErrInvalidPlanID = errors.New("plan id must not contain '-'")
)

// Codec is safe for concurrent use.
type Codec struct {
	secret []byte
	rand   io.Reader
}

// New returns a codec keyed with secret.
func New(secret string) *Codec {
	return &Codec{secret: []byte(secret), rand: rand.Reader}
}

// WithRandom returns a copy of the codec drawing random fields from r.
func (c *Codec) WithRandom(r io.Reader) *Codec {
	return &Codec{secret: c.secret, rand: r}
}

// Generate returns a new key for planID.
func (c *Codec) Generate(planID string) (string, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return "", ErrEmptyPlanID
	}
	if strings.Contains(planID, Delimiter) {
		return "", ErrInvalidPlanID
	}

	planCode := strings.ToUpper(planID)
	if r := []rune(planCode); len(r) > planCodeLen {
		planCode = string(r[:planCodeLen])
	}

	r1, err := c.randomHex(rand1Len)
	if err != nil {
		return "", err
	}
	r2, err := c.randomHex(rand2Len)
	if err != nil {
		return "", err
	}

	body := planCode + Delimiter + r1 + Delimiter + r2
	return Prefix + Delimiter + body + Delimiter + c.checksum(body), nil
}

// Verify reports whether key is well formed and carries a valid checksum.
// The checksum field must match exactly, so a lowercased key fails.
func (c *Codec) Verify(key string) bool {
	parts := strings.Split(key, Delimiter)
	if len(parts) != fieldCount || parts[0] != Prefix {
		return false
	}
	for _, p := range parts[1:] {
		if p == "" {
			return false
		}
	}

	body := strings.Join(parts[1:4], Delimiter)
	return hmac.Equal([]byte(parts[4]), []byte(c.checksum(body)))
}

// Normalize trims surrounding whitespace from a user-supplied key.
func (c *Codec) Normalize(key string) string {
	return strings.TrimSpace(key)
}

func (c *Codec) checksum(body string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(body))
	sum := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
	return sum[:checksumLen]
}

// randomHex returns n uppercase hex characters.
func (c *Codec) randomHex(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := io.ReadFull(c.rand, buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return strings.ToUpper(hex.EncodeToString(buf))[:n], nil
}
