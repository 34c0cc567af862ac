// Package challengedomain holds the pure rules around challenges: flag
// verification and generation, and the difficulty enum.
package challengedomain

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const (
	DefaultFlagPrefix = "CTF"
	DefaultFlagLength = 32
	MaxFlagLength     = 256

	flagAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// VerifyFlag compares a submitted flag with the stored one. Both are trimmed;
// when caseSensitive is false both are lower-cased. Strict mode requires exact
// equality, tolerant mode ignores all whitespace. Empty or blank input never
// matches.
func VerifyFlag(submitted, correct string, caseSensitive, strict bool) bool {
	s := strings.TrimSpace(submitted)
	c := strings.TrimSpace(correct)
	if s == "" || c == "" {
		return false
	}
	if !caseSensitive {
		s = strings.ToLower(s)
		c = strings.ToLower(c)
	}

	if strict {
		return s == c
	}
	return stripSpace(s) == stripSpace(c)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// GenerateFlag returns PREFIX{payload} with a random payload of letters and
// digits. Zero values select the defaults.
func GenerateFlag(prefix string, length int) (string, error) {
	if prefix == "" {
		prefix = DefaultFlagPrefix
	}
	if length <= 0 {
		length = DefaultFlagLength
	}
	if length > MaxFlagLength {
		return "", fmt.Errorf("flag length %d exceeds %d", length, MaxFlagLength)
	}

	alphabetLen := big.NewInt(int64(len(flagAlphabet)))
	payload := make([]byte, length)
	for i := range payload {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		payload[i] = flagAlphabet[n.Int64()]
	}
	return prefix + "{" + string(payload) + "}", nil
}

// ValidateFlagFormat checks for a brace-delimited non-empty payload and, when
// expectedPrefix is set, that the flag starts with it.
func ValidateFlagFormat(flag, expectedPrefix string) bool {
	if flag == "" {
		return false
	}
	open := strings.Index(flag, "{")
	closing := strings.Index(flag, "}")
	if open < 0 || closing < 0 {
		return false
	}
	if expectedPrefix != "" && !strings.HasPrefix(flag, expectedPrefix) {
		return false
	}
	return closing > open+1
}

// HashFlag returns the hex SHA-256 of flag.
func HashFlag(flag string) string {
	sum := sha256.Sum256([]byte(flag))
	return hex.EncodeToString(sum[:])
}

// DynamicFlag derives a per-user flag for a challenge from a server secret.
func DynamicFlag(challengeID, userID int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:%d", challengeID, userID)
	return DefaultFlagPrefix + "{" + hex.EncodeToString(mac.Sum(nil))[:16] + "}"
}
