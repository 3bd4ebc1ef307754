package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/tundr-bench/internal/config"
	"github.com/copyleftdev/tundr-bench/internal/errors"
	"github.com/copyleftdev/tundr-bench/internal/logging"
	"github.com/copyleftdev/tundr-bench/internal/suite"
)

// maxBodyBytes limits request bodies. A 640-dimensional input is well below it.
const maxBodyBytes = 1 << 20

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Benchmark is the set of problems served. *suite.Suite implements it.
type Benchmark interface {
	Infos() []suite.Info
	Describe(key string) (suite.Info, error)
	Evaluate(key string, x []float64) ([]float64, error)
	Close() error
}

// Server implements the HTTP and JSON-RPC evaluation service. It owns the
// benchmark it serves and closes it on Close.
type Server struct {
	cfg     *config.Config
	logger  Logger
	bench   Benchmark
	metrics *Metrics
}

// NewServer creates a new server instance. metrics may be nil.
func NewServer(cfg *config.Config, logger Logger, bench Benchmark, metrics *Metrics) *Server {
	if metrics != nil {
		metrics.problems.Set(float64(len(bench.Infos())))
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		bench:   bench,
		metrics: metrics,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/problems", s.handleList)
		r.Get("/problems/{key}", s.handleDescribe)
		r.Post("/problems/{key}/evaluate", s.handleEvaluate)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Close releases the benchmark.
func (s *Server) Close() error {
	return s.bench.Close()
}

type evaluateParams struct {
	Key string    `json:"key"`
	X   []float64 `json:"x"`
}

type evaluateResult struct {
	Key string    `json:"key"`
	Y   []float64 `json:"y"`
}

// evaluate runs one evaluation and records its outcome.
func (s *Server) evaluate(key string, x []float64) (y []float64, err error) {
	if s.metrics == nil {
		return s.bench.Evaluate(key, x)
	}
	if _, derr := s.bench.Describe(key); derr != nil {
		// unknown keys are not recorded to keep label cardinality bounded
		return nil, derr
	}

	start := time.Now()
	outcome := "panic"
	defer func() {
		s.metrics.duration.WithLabelValues(key).Observe(time.Since(start).Seconds())
		s.metrics.evaluations.WithLabelValues(key, outcome).Inc()
	}()

	y, err = s.bench.Evaluate(key, x)
	switch {
	case err == nil:
		outcome = "ok"
	case errors.Is(err, suite.ErrDimensionMismatch):
		outcome = "dimension_mismatch"
	case errors.Is(err, suite.ErrNonFinite):
		outcome = "non_finite"
	default:
		outcome = "error"
	}
	return y, err
}

// statusFor maps suite errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, suite.ErrUnknownProblem):
		return http.StatusNotFound
	case errors.Is(err, suite.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, suite.ErrNonFinite):
		return http.StatusUnprocessableEntity
	case errors.Is(err, suite.ErrPoolClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// rpcCodeFor maps suite errors to JSON-RPC error codes.
func rpcCodeFor(err error) int {
	if errors.Is(err, suite.ErrUnknownProblem) || errors.Is(err, suite.ErrDimensionMismatch) {
		return codeInvalidParams
	}
	return codeServerError
}

// handleList handles GET /api/v1/problems
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"problems": s.bench.Infos(),
	})
}

// handleDescribe handles GET /api/v1/problems/{key}
func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	info, err := s.bench.Describe(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleEvaluate handles POST /api/v1/problems/{key}/evaluate
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var body struct {
		X []float64 `json:"x"`
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	y, err := s.evaluate(key, body.X)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("Evaluation failed", map[string]interface{}{
				"problem": key,
				"error":   err,
			})
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResult{Key: key, Y: y})
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      interface{}     `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "problem.list":
		result = map[string]interface{}{"problems": s.bench.Infos()}
	case "problem.describe":
		var params evaluateParams
		if err = decodeParams(request.Params, &params); err == nil {
			result, err = s.bench.Describe(params.Key)
		}
	case "problem.evaluate":
		var params evaluateParams
		if err = decodeParams(request.Params, &params); err == nil {
			var y []float64
			if y, err = s.evaluate(params.Key, params.X); err == nil {
				result = evaluateResult{Key: params.Key, Y: y}
			}
		}
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID)
		return
	}

	if err != nil {
		var perr *paramsError
		if errors.As(err, &perr) {
			s.respondWithError(w, codeInvalidParams, "Invalid params: "+perr.Error(), request.ID)
			return
		}
		s.respondWithError(w, rpcCodeFor(err), err.Error(), request.ID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	})
}

type paramsError struct {
	err error
}

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

// decodeParams accepts params given either by name or as a one-element
// positional array holding the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return &paramsError{errors.New("missing required parameters")}
	}
	if raw[0] == '[' {
		var positional []json.RawMessage
		if err := json.Unmarshal(raw, &positional); err != nil {
			return &paramsError{err}
		}
		if len(positional) != 1 {
			return &paramsError{errors.Errorf("expected one parameter object, got %d", len(positional))}
		}
		raw = positional[0]
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &paramsError{err}
	}
	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Warn("RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}
