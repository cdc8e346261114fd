package common

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Maximum textual signature length accepted from the wire. An ed25519 signature is
// 64 bytes, which is at most 88 base58 characters.
const maxSignatureBase58Len = 128

// EncodeKey renders key material as lowercase hex.
func EncodeKey(key []byte) string {
	return hex.EncodeToString(key)
}

// DecodeKey parses a hex string, tolerating an optional 0x prefix.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex string: %w", err)
	}
	return b, nil
}

// DecodePublicKey parses a hex encoded ed25519 public key.
func DecodePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := DecodeKey(s)
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("bad public key length: %d", len(b))
	}
	return ed25519.PublicKey(b), nil
}

// IsValidPublicKey reports whether s is the canonical (lowercase, unprefixed) hex form
// of a 32 byte key.
func IsValidPublicKey(s string) bool {
	if len(s) != 2*ed25519.PublicKeySize {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// EncodeSignature encodes signature bytes to base58
func EncodeSignature(sig []byte) string {
	return base58.Encode(sig)
}

// DecodeSignature decodes a base58 signature string to bytes
func DecodeSignature(s string) ([]byte, error) {
	if len(s) > maxSignatureBase58Len {
		return nil, fmt.Errorf("signature too large")
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base58 string: %w", err)
	}
	if len(b) != ed25519.SignatureSize {
		return nil, fmt.Errorf("bad signature length: %d", len(b))
	}
	return b, nil
}
