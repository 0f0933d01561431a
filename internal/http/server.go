// Package http implements the studio HTTP transport: JSON-RPC over POST /
// plus an unauthenticated liveness endpoint, with optional Bearer API-key
// protection on everything else.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	applog "accounting/internal/log"
	"accounting/internal/rpc"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "accounting-mcp-server"

// Bodies larger than this are rejected at the transport level.
const maxBodyBytes = 1 << 20

type Server struct {
	http.Server

	dispatcher *rpc.Dispatcher
	apiKey     string
	logger     *applog.Logger
}

// NewServer builds the HTTP transport. An empty apiKey disables auth.
func NewServer(addr string, dispatcher *rpc.Dispatcher, apiKey string, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		dispatcher: dispatcher,
		apiKey:     apiKey,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRPC)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.requestLogging(s.requireAPIKey(mux)),
	}

	return s
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// handleHealth reports liveness. It never touches storage and never
// requires auth.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
	})
}

// handleRPC serves JSON-RPC at the root path. Protocol-level failures still
// return 200 with a JSON-RPC error body; 400 is reserved for a body that is
// not JSON at all.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method Not Allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, rpc.NewParseError("unreadable request body"))
		return
	}
	if !json.Valid(body) {
		writeRPCError(w, http.StatusBadRequest, rpc.NewParseError("request body is not valid JSON"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(s.dispatcher.HandleRaw(r.Context(), body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRPCError writes a JSON-RPC-shaped error body with the given HTTP
// status. Used for transport-level failures (auth, malformed body) that
// never reach the dispatcher.
func writeRPCError(w http.ResponseWriter, status int, rpcErr *rpc.Error) {
	writeJSON(w, status, rpc.NewErrorResponse(nil, rpcErr))
}
