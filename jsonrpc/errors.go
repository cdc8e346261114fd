package jsonrpc

import (
	stderrors "errors"

	"github.com/creachadair/jrpc2"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/jsonx"
)

// Application error codes, one per failure kind. The error data always carries the
// LedgerError so clients can recover the precise code.
const (
	CodeValidationError jrpc2.Code = -32001
	CodeStateError      jrpc2.Code = -32002
	CodeCryptoError     jrpc2.Code = -32003
	CodeQuorumError     jrpc2.Code = -32004
)

var kindCodes = map[errors.Kind]jrpc2.Code{
	errors.KindValidation: CodeValidationError,
	errors.KindState:      CodeStateError,
	errors.KindCrypto:     CodeCryptoError,
	errors.KindQuorum:     CodeQuorumError,
	errors.KindInternal:   jrpc2.InternalError,
}

func toJRPC2Error(err error) error {
	if err == nil {
		return nil
	}
	le, ok := errors.As(err)
	if !ok {
		le = &errors.LedgerError{Kind: errors.KindInternal, Code: errors.CodeInternal, Message: err.Error()}
	}
	code, ok := kindCodes[le.Kind]
	if !ok {
		code = jrpc2.InternalError
	}
	return jrpc2.Errorf(code, "%s", le.Message).WithData(le)
}

// FromJRPC2Error maps an error returned by a jrpc2 client call back onto the ledger
// taxonomy. Transport failures and errors without ledger data become internal errors.
func FromJRPC2Error(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *jrpc2.Error
	if !stderrors.As(err, &rpcErr) {
		return errors.Wrapf(err, errors.CodeInternal, "rpc call failed")
	}
	if len(rpcErr.Data) > 0 {
		var le errors.LedgerError
		if jsonx.Unmarshal(rpcErr.Data, &le) == nil && le.Code != "" {
			le.Kind = errors.KindOfCode(le.Code)
			return &le
		}
	}
	if rpcErr.Code == jrpc2.InvalidParams {
		return errors.New(errors.CodeInvalidRequest, rpcErr.Message)
	}
	return errors.Newf(errors.CodeInternal, "rpc error %d: %s", rpcErr.Code, rpcErr.Message)
}
