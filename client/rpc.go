package client

import (
	"context"
	"strings"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/mezonai/fastpay/jsonrpc"
	"github.com/mezonai/fastpay/transaction"
)

const DefaultRequestTimeout = 5 * time.Second

// RPCAuthorityClient calls an authority's JSON-RPC endpoint over HTTP.
type RPCAuthorityClient struct {
	publicKey string
	endpoint  string
	timeout   time.Duration
	cli       *jrpc2.Client
}

// NewRPCAuthorityClient connects lazily; endpoint is the authority base URL, with or
// without the /rpc path.
func NewRPCAuthorityClient(publicKey, endpoint string, timeout time.Duration) *RPCAuthorityClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	url := strings.TrimRight(endpoint, "/")
	if !strings.HasSuffix(url, jsonrpc.PathRPC) {
		url += jsonrpc.PathRPC
	}
	return &RPCAuthorityClient{
		publicKey: publicKey,
		endpoint:  url,
		timeout:   timeout,
		cli:       jrpc2.NewClient(jhttp.NewChannel(url, nil), nil),
	}
}

func (c *RPCAuthorityClient) PublicKey() string {
	return c.publicKey
}

func (c *RPCAuthorityClient) Endpoint() string {
	return c.endpoint
}

func (c *RPCAuthorityClient) call(ctx context.Context, method string, params, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return jsonrpc.FromJRPC2Error(c.cli.CallResult(ctx, method, params, result))
}

func (c *RPCAuthorityClient) CreateAccount(ctx context.Context, publicKey string) (Account, error) {
	var res jsonrpc.AccountResult
	if err := c.call(ctx, jsonrpc.MethodAccountCreate, jsonrpc.AccountParams{PublicKey: publicKey}, &res); err != nil {
		return Account{}, err
	}
	return accountFromResult(&res)
}

func (c *RPCAuthorityClient) GetAccount(ctx context.Context, publicKey string) (Account, error) {
	var res jsonrpc.AccountResult
	if err := c.call(ctx, jsonrpc.MethodAccountGet, jsonrpc.AccountParams{PublicKey: publicKey}, &res); err != nil {
		return Account{}, err
	}
	return accountFromResult(&res)
}

func (c *RPCAuthorityClient) SubmitTransfer(ctx context.Context, order *transaction.TransferOrder) (transaction.TransferCertificate, error) {
	var cert transaction.TransferCertificate
	err := c.call(ctx, jsonrpc.MethodTransferSubmit, jsonrpc.NewTransferParams(order), &cert)
	return cert, err
}

func (c *RPCAuthorityClient) ConfirmTransfer(ctx context.Context, sender string, certs []transaction.TransferCertificate) error {
	var res jsonrpc.ConfirmResult
	return c.call(ctx, jsonrpc.MethodTransferConfirm, jsonrpc.ConfirmParams{
		PublicKey:            sender,
		TransferCertificates: certs,
	}, &res)
}

// Info asks the authority for its identity and roster.
func (c *RPCAuthorityClient) Info(ctx context.Context) (*jsonrpc.AuthorityInfoResult, error) {
	var res jsonrpc.AuthorityInfoResult
	if err := c.call(ctx, jsonrpc.MethodAuthorityInfo, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *RPCAuthorityClient) Close() error {
	return c.cli.Close()
}
