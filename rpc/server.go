package rpc

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/salenode/salenode/core"
	"github.com/salenode/salenode/log"
)

// Server is a JSON-RPC HTTP server that dispatches requests to the
// SaleAPI.
type Server struct {
	api    *SaleAPI
	mux    *http.ServeMux
	logger *log.Logger
}

// NewServer creates a new JSON-RPC server for the given contract.
func NewServer(sale *core.TokenSale, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default().Module("rpc")
	}
	s := &Server{
		api:    NewSaleAPI(sale),
		mux:    http.NewServeMux(),
		logger: logger,
	}
	s.mux.HandleFunc("/", s.handleRPC)
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, nil, ErrCodeParse, "failed to read request body")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, ErrCodeParse, "invalid JSON")
		return
	}

	resp := s.api.HandleRequest(&req)
	if resp.Error != nil {
		s.logger.Debug("request failed", "method", req.Method, "code", resp.Error.Code, "err", resp.Error.Message)
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	resp := &Response{
		JSONRPC: "2.0",
		Error:   &RPCError{Code: code, Message: message},
		ID:      id,
	}
	writeJSON(w, resp)
}
