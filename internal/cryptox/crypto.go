// Package cryptox holds the digest helpers used to fingerprint firmware
// images before they leave the operator's machine.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// SHA256Hex streams r through SHA-256 and returns the lower-case hex digest
// together with the number of bytes hashed.
func SHA256Hex(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// ShortDigest shortens a hex digest for table output.
func ShortDigest(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
