package crypto

import (
	"crypto/ed25519"

	"github.com/hdevalence/ed25519consensus"
)

// Sign signs message with priv.
func Sign(priv ed25519.PrivateKey, message []byte) []byte {
	return ed25519.Sign(priv, message)
}

// Verify checks signature over message for pub using ZIP-215 validation rules, so every
// authority reaches the same verdict for the same bytes.
func Verify(signature, message []byte, pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519consensus.Verify(pub, message, signature)
}
