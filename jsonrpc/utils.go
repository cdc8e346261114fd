package jsonrpc

import (
	"net"
	"net/http"
	"strings"
)

// JSON-RPC method names
const (
	MethodAccountCreate   = "account.create"
	MethodAccountGet      = "account.get"
	MethodTransferSubmit  = "transfer.submit"
	MethodTransferConfirm = "transfer.confirm"
	MethodAuthorityInfo   = "authority.info"
)

// HTTP routes
const (
	PathRPC     = "/rpc"
	PathMetrics = "/metrics"
	PathHealth  = "/health"
)

func extractClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); net.ParseIP(ip) != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return "unknown"
}
