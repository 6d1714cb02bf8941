package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"forgechain/core"
	"forgechain/crypto"
	"forgechain/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	requestsPerSecond = 25
	requestBurst      = 50
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

type Server struct {
	node *core.Node
	log  *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	authToken string
}

func NewServer(node *core.Node, log *slog.Logger) *Server {
	token := strings.TrimSpace(os.Getenv("FORGE_RPC_TOKEN"))
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		node:      node,
		log:       log,
		limiters:  make(map[string]*rate.Limiter),
		authToken: token,
	}
}

// Start blocks serving JSON-RPC on addr. Prometheus metrics are exposed on
// the same listener under /metrics.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	s.log.Info("starting JSON-RPC server", "addr", addr)
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// statusWriter records the response status so the metrics hook can classify
// the outcome after the handler returns.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()

	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", requestID)

	source := clientSource(r)
	if !s.limiterFor(source).Allow() {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "too many requests", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		var outcome error
		if sw.status >= http.StatusBadRequest {
			outcome = errors.New(http.StatusText(sw.status))
		}
		observability.Metrics().Observe(req.Method, outcome, start)
		s.log.Debug("rpc request", "method", req.Method, "requestId", requestID, "source", source, "status", sw.status)
	}()

	switch req.Method {
	case "forge_requestGeneration":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleRequestGeneration(sw, r, req)
	case "forge_completeGeneration":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleCompleteGeneration(sw, r, req)
	case "forge_getGeneration":
		s.handleGetGeneration(sw, r, req)
	case "forge_getQuota":
		s.handleGetQuota(sw, r, req)
	case "forge_mintTemplate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleMintTemplate(sw, r, req)
	case "forge_getTemplate":
		s.handleGetTemplate(sw, r, req)
	case "forge_listTemplate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleListTemplate(sw, r, req)
	case "forge_purchaseTemplate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handlePurchaseTemplate(sw, r, req)
	case "forge_cancelListing":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleCancelListing(sw, r, req)
	case "forge_getListing":
		s.handleGetListing(sw, r, req)
	case "forge_rateTemplate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleRateTemplate(sw, r, req)
	case "forge_getRating":
		s.handleGetRating(sw, r, req)
	case "forge_getBalance":
		s.handleGetBalance(sw, r, req)
	case "forge_params":
		s.handleParams(sw, r, req)
	case "forge_setDailyLimit":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetDailyLimit(sw, r, req)
	case "forge_setMintFee":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetMintFee(sw, r, req)
	case "forge_setPlatformFee":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetPlatformFee(sw, r, req)
	case "forge_setTemplateToken":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleSetTemplateToken(sw, r, req)
	case "forge_withdrawFees":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(sw, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleWithdrawFees(sw, r, req)
	case "forge_events":
		s.handleEvents(sw, r, req)
	default:
		writeError(sw, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (s *Server) limiterFor(source string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst)
		s.limiters[source] = limiter
	}
	return limiter
}

func clientSource(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}

func decodeBech32(addr string) ([20]byte, error) {
	var zero [20]byte
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(addr))
	if err != nil {
		return zero, err
	}
	copy(zero[:], decoded.Bytes())
	return zero, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.ForgePrefix, addr[:]).String()
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return value, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
