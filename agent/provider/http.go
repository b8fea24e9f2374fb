package provider

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

const maxRequestBodyBytes = 1 << 20

// rpcEnvelope is the wire shape of every tool response: exactly one of
// result and error is set.
type rpcEnvelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type getProductRequest struct {
	Selector string `json:"selector"`
}

// Handler serves the tool operations as POST /tools/{op}, one route per
// entry in Ops.
func (s *Server) Handler() http.Handler {
	routes := map[string]http.HandlerFunc{
		OpListProducts: s.handleListProducts,
		OpGetProduct:   s.handleGetProduct,
		OpAddProduct:   s.handleAddProduct,
		OpGetStats:     s.handleGetStats,
	}

	mux := http.NewServeMux()
	for _, op := range Ops() {
		mux.HandleFunc("POST /tools/"+op, routes[op])
	}
	return mux
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.ListProducts(r.Context())
	if err != nil {
		writeError(w, OpListProducts, err)
		return
	}
	writeResult(w, OpListProducts, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	var req getProductRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, OpGetProduct, err)
		return
	}

	p, err := s.GetProduct(r.Context(), req.Selector)
	if err != nil {
		writeError(w, OpGetProduct, err)
		return
	}
	writeResult(w, OpGetProduct, p)
}

func (s *Server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	req := contractx.NewProduct{InStock: true}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, OpAddProduct, err)
		return
	}

	p, err := s.AddProduct(r.Context(), req)
	if err != nil {
		writeError(w, OpAddProduct, err)
		return
	}
	writeResult(w, OpAddProduct, p)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.GetStats(r.Context())
	if err != nil {
		writeError(w, OpGetStats, err)
		return
	}
	writeResult(w, OpGetStats, stats)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return contractx.ErrValidation
	}
	if len(raw) == 0 {
		return contractx.ErrValidation
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return contractx.ErrValidation
	}
	return nil
}

func writeResult(w http.ResponseWriter, op string, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeEnvelope(w, http.StatusOK, rpcEnvelope{Result: raw})
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, contractx.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, contractx.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, contractx.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, contractx.ErrTimeout):
		status = http.StatusGatewayTimeout
	}

	log.Warn().Str("op", op).Int("status", status).Err(err).Msg("tool call failed")
	writeEnvelope(w, status, rpcEnvelope{Error: err.Error()})
}

func writeEnvelope(w http.ResponseWriter, status int, envelope rpcEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}
