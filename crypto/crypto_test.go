package crypto

import (
	"testing"

	"github.com/mezonai/fastpay/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKeyPair(t *testing.T) *KeyPair {
	t.Helper()
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	return kp
}

func TestSignVerifyRoundTrip(t *testing.T) {
	alice := mustKeyPair(t)
	bob := mustKeyPair(t)
	msg := []byte("alice|bob|4|0")

	sig := Sign(alice.Private, msg)
	assert.True(t, Verify(sig, msg, alice.Public))

	// other key pair
	assert.False(t, Verify(sig, msg, bob.Public))

	// every single-byte mutation of the message
	for i := range msg {
		mutated := append([]byte(nil), msg...)
		mutated[i] ^= 0x01
		assert.False(t, Verify(sig, mutated, alice.Public), "mutation at %d", i)
	}

	// truncated signature
	assert.False(t, Verify(sig[:63], msg, alice.Public))
}

func TestSignIsDeterministic(t *testing.T) {
	kp := mustKeyPair(t)
	msg := []byte("same message")
	assert.Equal(t, Sign(kp.Private, msg), Sign(kp.Private, msg))
}

func TestParsePrivateKey(t *testing.T) {
	kp := mustKeyPair(t)

	fromSeed, err := ParsePrivateKey(kp.SeedHex())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicHex, fromSeed.PublicHex)

	fromFull, err := ParsePrivateKey("0x" + common.EncodeKey(kp.Private))
	require.NoError(t, err)
	assert.Equal(t, kp.PublicHex, fromFull.PublicHex)

	_, err = ParsePrivateKey("abcd")
	assert.Error(t, err)

	_, err = ParsePrivateKey("not hex")
	assert.Error(t, err)
}

func TestBatchVerifierFeedback(t *testing.T) {
	keys := []*KeyPair{mustKeyPair(t), mustKeyPair(t), mustKeyPair(t)}
	msg := []byte("order bytes")

	bv := NewBatchVerifier(len(keys))
	for _, kp := range keys {
		bv.Enqueue(kp.Public, msg, Sign(kp.Private, msg))
	}
	failed, err := bv.VerifyWithFeedback()
	require.NoError(t, err)
	assert.Nil(t, failed)

	bv = NewBatchVerifier(len(keys))
	bv.Enqueue(keys[0].Public, msg, Sign(keys[0].Private, msg))
	bv.Enqueue(keys[1].Public, msg, Sign(keys[2].Private, msg))
	bv.Enqueue(keys[2].Public, msg, []byte("short"))
	require.Equal(t, 3, bv.Len())

	failed, err = bv.VerifyWithFeedback()
	require.ErrorIs(t, err, ErrBatchHasFailedSigs)
	assert.Equal(t, []bool{false, true, true}, failed)
}

func TestEmptyBatch(t *testing.T) {
	failed, err := NewBatchVerifier(0).VerifyWithFeedback()
	assert.NoError(t, err)
	assert.Nil(t, failed)
}
