package crypto

import (
	"crypto/ed25519"
	"errors"

	"github.com/hdevalence/ed25519consensus"
)

var ErrBatchHasFailedSigs = errors.New("at least one signature didn't pass verification")

type batchEntry struct {
	pub       ed25519.PublicKey
	message   []byte
	signature []byte
	malformed bool
}

// BatchVerifier verifies many signatures at once and, when the batch fails, reports which
// entries were bad.
type BatchVerifier struct {
	entries   []batchEntry
	malformed bool
	bv        ed25519consensus.BatchVerifier
}

// NewBatchVerifier preallocates room for hint entries.
func NewBatchVerifier(hint int) *BatchVerifier {
	if hint <= 0 {
		hint = 1
	}
	return &BatchVerifier{
		entries: make([]batchEntry, 0, hint),
		bv:      ed25519consensus.NewPreallocatedBatchVerifier(hint),
	}
}

// Enqueue adds a signature to the batch.
func (b *BatchVerifier) Enqueue(pub ed25519.PublicKey, message, signature []byte) {
	malformed := len(pub) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize
	b.entries = append(b.entries, batchEntry{
		pub:       pub,
		message:   message,
		signature: signature,
		malformed: malformed,
	})
	if malformed {
		b.malformed = true
		return
	}
	b.bv.Add(pub, message, signature)
}

// Len returns the number of enqueued signatures.
func (b *BatchVerifier) Len() int {
	return len(b.entries)
}

// VerifyWithFeedback returns nil when every signature is valid. Otherwise failed[i] is
// true for each bad entry and the error is ErrBatchHasFailedSigs.
func (b *BatchVerifier) VerifyWithFeedback() (failed []bool, err error) {
	if len(b.entries) == 0 {
		return nil, nil
	}

	if !b.malformed && b.bv.Verify() {
		return nil, nil
	}

	failed = make([]bool, len(b.entries))
	for i, e := range b.entries {
		failed[i] = e.malformed || !Verify(e.signature, e.message, e.pub)
	}
	return failed, ErrBatchHasFailedSigs
}
