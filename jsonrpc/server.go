package jsonrpc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/exception"
	"github.com/mezonai/fastpay/interfaces"
	"github.com/mezonai/fastpay/jsonx"
	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/monitoring"
	"github.com/mezonai/fastpay/transaction"
)

// --- Server ---

type Server struct {
	addr       string
	ledger     interfaces.LedgerService
	identity   interfaces.AuthorityIdentity
	corsConfig CORSConfig

	once        sync.Once
	router      *mux.Router
	closeBridge func() error

	mu         sync.Mutex
	httpServer *http.Server
	listenAddr string
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

func NewServer(addr string, ledger interfaces.LedgerService, identity interfaces.AuthorityIdentity) *Server {
	return &Server{
		addr:     addr,
		ledger:   ledger,
		identity: identity,
	}
}

// SetCORSConfig must be called before Handler or Start.
func (s *Server) SetCORSConfig(config CORSConfig) {
	s.corsConfig = config
}

// Handler returns the router serving /rpc, /metrics and /health.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		bridge := jhttp.NewBridge(s.buildMethodMap(), &jhttp.BridgeOptions{Server: &jrpc2.ServerOptions{}})
		s.closeBridge = bridge.Close

		router := mux.NewRouter()
		router.Use(s.logRequests)
		router.Use(s.cors)
		router.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		router.Handle(PathRPC, http.HandlerFunc(bridge.ServeHTTP)).Methods(http.MethodPost)
		router.HandleFunc(PathHealth, s.health).Methods(http.MethodGet)
		monitoring.RegisterMetrics(router)
		s.router = router
	})
	return s.router
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.listenAddr = ln.Addr().String()
	s.mu.Unlock()

	logx.Info("RPC", fmt.Sprintf("Authority %s serving JSON-RPC on %s%s", s.identity.PublicKey(), s.listenAddr, PathRPC))
	exception.SafeGoWithPanic("jsonrpc-serve", func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logx.Error("RPC", "server stopped: ", err)
		}
	})
	return nil
}

// Addr is the bound address once Start has returned.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	if s.closeBridge != nil {
		if cerr := s.closeBridge(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Build jrpc2 method map
func (s *Server) buildMethodMap() handler.Map {
	return handler.Map{
		MethodAccountCreate: handler.New(func(ctx context.Context, p AccountParams) (*AccountResult, error) {
			view, err := s.ledger.InitAccount(strings.TrimSpace(p.PublicKey))
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return NewAccountResult(view), nil
		}),
		MethodAccountGet: handler.New(func(ctx context.Context, p AccountParams) (*AccountResult, error) {
			view, err := s.ledger.GetAccount(strings.TrimSpace(p.PublicKey))
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return NewAccountResult(view), nil
		}),
		MethodTransferSubmit: handler.New(func(ctx context.Context, p TransferParams) (*transaction.TransferCertificate, error) {
			order, err := p.toOrder()
			if err != nil {
				monitoring.RecordRejectedTransfer(string(errors.CodeOf(err)))
				return nil, toJRPC2Error(err)
			}
			cert, err := s.ledger.ValidateAndSign(order)
			if err != nil {
				return nil, toJRPC2Error(err)
			}
			return &cert, nil
		}),
		MethodTransferConfirm: handler.New(func(ctx context.Context, p ConfirmParams) (*ConfirmResult, error) {
			if _, err := s.ledger.Confirm(strings.TrimSpace(p.PublicKey), p.TransferCertificates); err != nil {
				return nil, toJRPC2Error(err)
			}
			return &ConfirmResult{}, nil
		}),
		MethodAuthorityInfo: handler.New(func(ctx context.Context) (*AuthorityInfoResult, error) {
			return &AuthorityInfoResult{
				PublicKey: s.identity.PublicKey(),
				Roster:    s.identity.Roster(),
				Threshold: s.identity.QuorumSize(),
			}, nil
		}),
	}
}

func (p TransferParams) toOrder() (*transaction.TransferOrder, error) {
	order := &transaction.TransferOrder{
		Sender:       strings.TrimSpace(p.Sender),
		Recipient:    strings.TrimSpace(p.Recipient),
		NextSequence: p.NextSequence,
		Signature:    strings.TrimSpace(p.Signature),
	}
	if amount := strings.TrimSpace(p.Amount); amount != "" {
		value, err := uint256.FromDecimal(amount)
		if err != nil {
			return nil, errors.Newf(errors.CodeInvalidAmount, "Amount %q is not a positive integer", p.Amount)
		}
		order.Amount = value
	}
	return order, nil
}

// --- Helpers ---

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body, err := jsonx.Marshal(healthResponse{
		Status:    "ok",
		PublicKey: s.identity.PublicKey(),
		Accounts:  s.ledger.AccountCount(),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logx.Debug("RPC", fmt.Sprintf("%s %s | client=%s | took=%s",
			r.Method, r.URL.Path, extractClientIPFromRequest(r), time.Since(start)))
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w, r)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	if len(s.corsConfig.AllowedOrigins) > 0 {
		if s.corsConfig.AllowedOrigins[0] == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			origin := r.Header.Get("Origin")
			for _, allowed := range s.corsConfig.AllowedOrigins {
				if origin == allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
	}
	if len(s.corsConfig.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(s.corsConfig.AllowedMethods, ", "))
	}
	if len(s.corsConfig.AllowedHeaders) > 0 {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(s.corsConfig.AllowedHeaders, ", "))
	}
	if s.corsConfig.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", s.corsConfig.MaxAge))
	}
}
