package transaction

// TransferCertificate is one authority's attestation that it validated and locked an
// order. Signature is the authority's base58 signature over the order's canonical
// message.
type TransferCertificate struct {
	AuthorityPublicKey string `json:"authority_public_key"`
	Signature          string `json:"signature"`
}

// CloneCertificates copies a certificate set so callers cannot alias stored state.
func CloneCertificates(certs []TransferCertificate) []TransferCertificate {
	if certs == nil {
		return nil
	}
	out := make([]TransferCertificate, len(certs))
	copy(out, certs)
	return out
}
