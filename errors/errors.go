// Package errors defines the failure taxonomy shared by the authority, the ledger, the
// transport and the quorum client.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind groups codes into the broad failure classes reported to clients.
type Kind string

const (
	KindValidation Kind = "validation"
	KindState      Kind = "state"
	KindCrypto     Kind = "crypto"
	KindQuorum     Kind = "quorum"
	KindInternal   Kind = "internal"
)

// Code is a stable, machine readable failure reason.
type Code string

const (
	// Validation errors
	CodeEmptyPublicKey   Code = "empty_public_key"
	CodeInvalidPublicKey Code = "invalid_public_key"
	CodeInvalidAmount    Code = "invalid_amount"
	CodeInvalidRequest   Code = "invalid_request"

	// State errors
	CodeAlreadyExists     Code = "already_exists"
	CodeNotFound          Code = "not_found"
	CodeUnknownSender     Code = "unknown_sender"
	CodeNoPendingOrder    Code = "no_pending_order"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeSequenceMismatch  Code = "sequence_mismatch"
	CodeBalanceOverflow   Code = "balance_overflow"

	// Crypto errors
	CodeMissingSignature Code = "missing_signature"
	CodeInvalidSignature Code = "invalid_signature"
	CodeUnknownAuthority Code = "unknown_authority"
	CodeBadSignature     Code = "bad_signature"

	// Quorum errors
	CodeInsufficientCertificates Code = "insufficient_certificates"
	CodeQuorumNotReached         Code = "quorum_not_reached"
	CodeQuorumTimeout            Code = "quorum_timeout"

	CodeInternal Code = "internal_error"
)

// Error message constants, used when a failure site has nothing more specific to say.
const (
	MsgEmptyPublicKey           = "Public key is required"
	MsgInvalidPublicKey         = "Public key is not a valid hex encoded ed25519 key"
	MsgInvalidAmount            = "Amount must be a positive integer"
	MsgInvalidRequest           = "Request format is invalid"
	MsgAlreadyExists            = "Account already exists"
	MsgNotFound                 = "Account does not exist"
	MsgUnknownSender            = "Sender account does not exist"
	MsgNoPendingOrder           = "Account has no pending transfer order"
	MsgInsufficientFunds        = "Not enough balance for this transfer"
	MsgSequenceMismatch         = "Transfer sequence does not match the account sequence"
	MsgBalanceOverflow          = "Recipient balance would overflow"
	MsgMissingSignature         = "Transfer order is not signed"
	MsgInvalidSignature         = "Transfer order signature is invalid"
	MsgUnknownAuthority         = "Certificate is not issued by a known authority"
	MsgBadSignature             = "Certificate signature does not match the transfer order"
	MsgInsufficientCertificates = "Not enough certificates to form a quorum"
	MsgQuorumNotReached         = "Authorities did not reach a quorum"
	MsgQuorumTimeout            = "Timed out waiting for a quorum of authorities"
	MsgInternal                 = "Server error, please try again"
)

var codeKinds = map[Code]Kind{
	CodeEmptyPublicKey:           KindValidation,
	CodeInvalidPublicKey:         KindValidation,
	CodeInvalidAmount:            KindValidation,
	CodeInvalidRequest:           KindValidation,
	CodeAlreadyExists:            KindState,
	CodeNotFound:                 KindState,
	CodeUnknownSender:            KindState,
	CodeNoPendingOrder:           KindState,
	CodeInsufficientFunds:        KindState,
	CodeSequenceMismatch:         KindState,
	CodeBalanceOverflow:          KindState,
	CodeMissingSignature:         KindCrypto,
	CodeInvalidSignature:         KindCrypto,
	CodeUnknownAuthority:         KindCrypto,
	CodeBadSignature:             KindCrypto,
	CodeInsufficientCertificates: KindQuorum,
	CodeQuorumNotReached:         KindQuorum,
	CodeQuorumTimeout:            KindQuorum,
	CodeInternal:                 KindInternal,
}

// LedgerError is a typed protocol failure.
type LedgerError struct {
	Kind    Kind   `json:"kind"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target carries the same code, so callers can compare against the
// exported sentinels regardless of the message.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	return ok && t.Code == e.Code
}

// KindOfCode returns the class a code belongs to. Unknown codes are internal.
func KindOfCode(code Code) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return KindInternal
}

// New creates a LedgerError for code and returns it as error interface
func New(code Code, message string) error {
	return &LedgerError{
		Kind:    KindOfCode(code),
		Code:    code,
		Message: message,
	}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...interface{}) error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrapf attaches code to a foreign error. A LedgerError is returned unchanged so the
// original reason survives transport layers.
func Wrapf(err error, code Code, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if le, ok := As(err); ok {
		return le
	}
	return New(code, fmt.Sprintf(format, args...)+": "+err.Error())
}

// As unwraps err into a *LedgerError.
func As(err error) (*LedgerError, bool) {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	if le, ok := As(err); ok {
		return le.Code
	}
	return CodeInternal
}

// KindOf returns the class of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if le, ok := As(err); ok {
		return le.Kind
	}
	return KindInternal
}

// Is is errors.Is, re-exported so callers importing this package need not alias the
// standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func sentinel(code Code, message string) *LedgerError {
	return &LedgerError{Kind: KindOfCode(code), Code: code, Message: message}
}

var (
	ErrEmptyPublicKey           = sentinel(CodeEmptyPublicKey, MsgEmptyPublicKey)
	ErrInvalidPublicKey         = sentinel(CodeInvalidPublicKey, MsgInvalidPublicKey)
	ErrInvalidAmount            = sentinel(CodeInvalidAmount, MsgInvalidAmount)
	ErrInvalidRequest           = sentinel(CodeInvalidRequest, MsgInvalidRequest)
	ErrAlreadyExists            = sentinel(CodeAlreadyExists, MsgAlreadyExists)
	ErrNotFound                 = sentinel(CodeNotFound, MsgNotFound)
	ErrUnknownSender            = sentinel(CodeUnknownSender, MsgUnknownSender)
	ErrNoPendingOrder           = sentinel(CodeNoPendingOrder, MsgNoPendingOrder)
	ErrInsufficientFunds        = sentinel(CodeInsufficientFunds, MsgInsufficientFunds)
	ErrSequenceMismatch         = sentinel(CodeSequenceMismatch, MsgSequenceMismatch)
	ErrBalanceOverflow          = sentinel(CodeBalanceOverflow, MsgBalanceOverflow)
	ErrMissingSignature         = sentinel(CodeMissingSignature, MsgMissingSignature)
	ErrInvalidSignature         = sentinel(CodeInvalidSignature, MsgInvalidSignature)
	ErrUnknownAuthority         = sentinel(CodeUnknownAuthority, MsgUnknownAuthority)
	ErrBadSignature             = sentinel(CodeBadSignature, MsgBadSignature)
	ErrInsufficientCertificates = sentinel(CodeInsufficientCertificates, MsgInsufficientCertificates)
	ErrQuorumNotReached         = sentinel(CodeQuorumNotReached, MsgQuorumNotReached)
	ErrQuorumTimeout            = sentinel(CodeQuorumTimeout, MsgQuorumTimeout)
	ErrInternal                 = sentinel(CodeInternal, MsgInternal)
)
