// Package authority holds one replica's signing identity and the fixed roster against
// which transfer certificates are checked.
package authority

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mezonai/fastpay/common"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/transaction"
)

// Threshold is the number of distinct authority signatures that certify an order among n
// authorities: 1 + floor(2(n-1)/3), i.e. 2f+1 when n = 3f+1.
func Threshold(n int) int {
	if n <= 0 {
		return 1
	}
	return 1 + (2*(n-1))/3
}

type Authority struct {
	keyPair *crypto.KeyPair
	roster  []string
	members map[string]ed25519.PublicKey
}

// New validates the roster once. It must list every authority, including this one, by hex
// public key without duplicates.
func New(kp *crypto.KeyPair, roster []string) (*Authority, error) {
	if kp == nil {
		return nil, fmt.Errorf("authority key pair is required")
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("authority roster is empty")
	}

	members := make(map[string]ed25519.PublicKey, len(roster))
	for i, key := range roster {
		pub, err := common.DecodePublicKey(key)
		if err != nil || !common.IsValidPublicKey(key) {
			return nil, fmt.Errorf("roster entry %d: invalid public key %q", i, key)
		}
		if _, dup := members[key]; dup {
			return nil, fmt.Errorf("roster entry %d: duplicate public key %s", i, key)
		}
		members[key] = pub
	}
	if _, ok := members[kp.PublicHex]; !ok {
		return nil, fmt.Errorf("own public key %s is not in the roster", kp.PublicHex)
	}

	return &Authority{
		keyPair: kp,
		roster:  append([]string(nil), roster...),
		members: members,
	}, nil
}

func (a *Authority) PublicKey() string {
	return a.keyPair.PublicHex
}

// Roster returns a copy of the authority keys in configured order.
func (a *Authority) Roster() []string {
	return append([]string(nil), a.roster...)
}

func (a *Authority) QuorumSize() int {
	return Threshold(len(a.roster))
}

func (a *Authority) IsMember(publicKey string) bool {
	_, ok := a.members[publicKey]
	return ok
}

// Sign endorses order. It performs no validation.
func (a *Authority) Sign(order *transaction.TransferOrder) transaction.TransferCertificate {
	sig := crypto.Sign(a.keyPair.Private, order.Serialize())
	return transaction.TransferCertificate{
		AuthorityPublicKey: a.keyPair.PublicHex,
		Signature:          common.EncodeSignature(sig),
	}
}

// VerifyQuorum checks that certs certify exactly order. Certificates are examined in
// order and the first offending one is reported. Repeated signers count once.
func (a *Authority) VerifyQuorum(order *transaction.TransferOrder, certs []transaction.TransferCertificate) error {
	threshold := a.QuorumSize()
	if len(certs) < threshold {
		return errors.Newf(errors.CodeInsufficientCertificates,
			"Got %d certificates, need %d", len(certs), threshold)
	}

	message := order.Serialize()
	bv := crypto.NewBatchVerifier(len(certs))
	// batch index of cert i, or -1 when the cert was rejected before verification
	slots := make([]int, len(certs))
	failures := make([]error, len(certs))
	distinct := make(map[string]struct{}, len(certs))

	for i, cert := range certs {
		slots[i] = -1
		if !a.IsMember(cert.AuthorityPublicKey) {
			failures[i] = errors.Newf(errors.CodeUnknownAuthority,
				"Certificate %d is signed by %s which is not an authority", i, cert.AuthorityPublicKey)
			continue
		}
		sig, err := common.DecodeSignature(cert.Signature)
		if err != nil {
			failures[i] = badSignature(i, cert)
			continue
		}
		slots[i] = bv.Len()
		bv.Enqueue(a.members[cert.AuthorityPublicKey], message, sig)
		distinct[cert.AuthorityPublicKey] = struct{}{}
	}

	failed, err := bv.VerifyWithFeedback()
	for i, cert := range certs {
		if failures[i] != nil {
			return failures[i]
		}
		if err != nil && slots[i] >= 0 && failed[slots[i]] {
			return badSignature(i, cert)
		}
	}
	if err != nil {
		return errors.Newf(errors.CodeBadSignature, "Certificate batch failed verification")
	}

	if len(distinct) < threshold {
		return errors.Newf(errors.CodeInsufficientCertificates,
			"Got %d distinct authorities, need %d", len(distinct), threshold)
	}
	return nil
}

func badSignature(i int, cert transaction.TransferCertificate) error {
	return errors.Newf(errors.CodeBadSignature,
		"Certificate %d from %s does not verify over the order", i, cert.AuthorityPublicKey)
}
