package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// SHA256Hex streams r through SHA256 and returns the bare lowercase hex digest.
func SHA256Hex(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to write content to hasher: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MatchesDigest reports whether actual equals expected, ignoring case and an
// optional "sha256:" prefix on expected.
func MatchesDigest(expected, actual string) bool {
	expected = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(expected)), "sha256:")
	return expected == strings.ToLower(actual)
}
