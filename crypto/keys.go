package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mezonai/fastpay/common"
)

// KeyPair is an ed25519 identity. Public is the account or authority identity;
// PublicHex is its wire form.
type KeyPair struct {
	Private   ed25519.PrivateKey
	Public    ed25519.PublicKey
	PublicHex string
}

// GenerateKeyPair creates a fresh random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newKeyPair(priv, pub), nil
}

// KeyPairFromSeed derives the key pair for a 32 byte seed.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("unsupported seed length: %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return newKeyPair(priv, priv.Public().(ed25519.PublicKey)), nil
}

// ParsePrivateKey accepts a hex encoded seed or full 64 byte private key.
func ParsePrivateKey(s string) (*KeyPair, error) {
	b, err := common.DecodeKey(s)
	if err != nil {
		return nil, err
	}
	switch l := len(b); l {
	case ed25519.SeedSize:
		return KeyPairFromSeed(b)
	case ed25519.PrivateKeySize:
		// re-derive from the seed half so a tampered public half is ignored
		return KeyPairFromSeed(b[:ed25519.SeedSize])
	default:
		return nil, fmt.Errorf("unsupported private key length: %d", l)
	}
}

// SeedHex returns the hex encoded private seed.
func (kp *KeyPair) SeedHex() string {
	return common.EncodeKey(kp.Private.Seed())
}

func newKeyPair(priv ed25519.PrivateKey, pub ed25519.PublicKey) *KeyPair {
	return &KeyPair{
		Private:   priv,
		Public:    pub,
		PublicHex: common.EncodeKey(pub),
	}
}

// ParsePublicKey decodes a hex encoded 32 byte public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	return common.DecodePublicKey(s)
}
