package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler"
	cerrors "github.com/conduit-lang/stencil/internal/compiler/errors"
	"github.com/conduit-lang/stencil/internal/compiler/metadata"
)

// CompileRequest is the body of /api/compile and /api/parse, and of a
// websocket message
type CompileRequest struct {
	Source   string `json:"source"`
	Filename string `json:"filename,omitempty"`
}

// CompileResponse is the reply to a compile request
type CompileResponse struct {
	ID          string             `json:"id"`
	RequestID   string             `json:"request_id,omitempty"`
	Cached      bool               `json:"cached"`
	Diagnostics cerrors.ErrorList  `json:"diagnostics"`
	Result      *metadata.Metadata `json:"result"`
}

// ParseResponse is the reply to a parse request
type ParseResponse struct {
	RequestID   string            `json:"request_id,omitempty"`
	Diagnostics cerrors.ErrorList `json:"diagnostics"`
	AST         []*metadata.Node  `json:"ast"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	m := s.coordinator.Metrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"cache_hits":     m.CacheHits,
		"cache_misses":   m.CacheMisses,
		"cache_hit_rate": m.CacheHitRate(),
		"files_compiled": m.FilesCompiled,
		"failed":         m.Failed,
	})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := s.compile(r, req)
	if err != nil {
		s.logger.Error("compile failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "compilation failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) compile(r *http.Request, req *CompileRequest) (*CompileResponse, error) {
	m, cached, err := s.coordinator.Compile(r.Context(), filenameOf(req), req.Source)
	if err != nil {
		return nil, err
	}
	return &CompileResponse{
		ID:          m.ID,
		RequestID:   GetRequestID(r.Context()),
		Cached:      cached,
		Diagnostics: orEmpty(m.Diagnostics),
		Result:      m,
	}, nil
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	c := cerrors.NewCollector()
	opts := s.coordinator.Options()
	opts.Filename = filenameOf(req)
	opts.OnError = c.OnError
	opts.OnWarn = c.OnWarn
	opts.Logger = s.logger

	root, err := compiler.Parse(req.Source, opts)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "parse failed")
		return
	}
	writeJSON(w, http.StatusOK, &ParseResponse{
		RequestID:   GetRequestID(r.Context()),
		Diagnostics: orEmpty(c.All()),
		AST:         metadata.Tree(root),
	})
}

// decodeRequest reads a CompileRequest, writing the error response itself
// when the body is unusable.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*CompileRequest, bool) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		writeError(w, r, http.StatusUnsupportedMediaType, "content type must be application/json")
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}
	return &req, true
}

func filenameOf(req *CompileRequest) string {
	if req.Filename == "" {
		return "anonymous.html"
	}
	return req.Filename
}

func orEmpty(list cerrors.ErrorList) cerrors.ErrorList {
	if list == nil {
		return cerrors.ErrorList{}
	}
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: GetRequestID(r.Context())})
}
