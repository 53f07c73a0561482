// Package server exposes the verification pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/dshills/radverify/internal/pipeline"
	"github.com/dshills/radverify/internal/schema"
)

// maxBodyBytes bounds the request body; finding records and report text
// are small.
const maxBodyBytes = 1 << 20 // 1 MB

// Server serves the verification API.
type Server struct {
	Addr     string
	Logger   zerolog.Logger
	Pipeline *pipeline.Pipeline
}

// verifyRequest is the POST /verify payload.
type verifyRequest struct {
	AIFindings *schema.FindingRecord `json:"ai_findings"`
	ReportText string                `json:"report_text"`
}

// verifyResponse is the POST /verify response body.
type verifyResponse struct {
	Result          *schema.Result `json:"result"`
	ProcessingNotes []string       `json:"processing_notes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/verify", s.handleVerify).Methods(http.MethodPost)
	return r
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info().Str("listen", s.Addr).Msg("starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if req.AIFindings == nil || req.AIFindings.Len() == 0 {
		s.writeError(w, http.StatusBadRequest, "ai_findings is required")
		return
	}
	if req.ReportText == "" {
		s.writeError(w, http.StatusBadRequest, "report_text is required")
		return
	}

	result, notes, err := s.Pipeline.Verify(r.Context(), req.AIFindings, req.ReportText)
	if err != nil {
		var confErr *schema.ConfigurationError
		if errors.As(err, &confErr) {
			// The client sent a field the deployment has no rule for.
			s.writeError(w, http.StatusBadRequest, confErr.Error())
			return
		}
		s.Logger.Error().Err(err).Msg("verification failed")
		s.writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	s.writeJSON(w, http.StatusOK, verifyResponse{Result: result, ProcessingNotes: notes})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.Logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
