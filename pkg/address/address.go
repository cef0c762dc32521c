package address

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

// Zero is the all-zero account identifier.
const Zero = "0x0000000000000000000000000000000000000000"

var reAddress = regexp.MustCompile(`^0x[a-f0-9]{40}$`)

var ErrInvalid = errors.New("address must be 0x followed by 40 hex characters")

// Normalize trims and lower-cases s and checks the 0x + 40 hex format.
func Normalize(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !reAddress.MatchString(s) {
		return "", ErrInvalid
	}
	return s, nil
}

// Valid reports whether s is a well formed address (case-insensitive).
func Valid(s string) bool {
	_, err := Normalize(s)
	return err == nil
}

func IsZero(s string) bool { return strings.EqualFold(strings.TrimSpace(s), Zero) }

// New returns a random address. Used for fixtures and dev seeding.
func New() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return "0x" + hex.EncodeToString(b)
}
