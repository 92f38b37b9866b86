package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/intake"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/store"
	"github.com/ppiankov/claimflow/internal/tools"
)

const maxBodyBytes = 1 << 20

type submitResp struct {
	Message      string `json:"message"`
	Status       string `json:"status"`
	SubmissionID string `json:"submissionId"`
}

type oracleInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type healthResp struct {
	Status          string       `json:"status"`
	Mode            model.Mode   `json:"mode"`
	Tools           []tools.Name `json:"tools"`
	KnowledgeChunks int          `json:"knowledgeChunks"`
	Oracle          oracleInfo   `json:"oracle"`
	InFlight        int          `json:"inFlight"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleProcessClaim(w http.ResponseWriter, r *http.Request) {
	var sub model.ClaimSubmission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	task, err := s.deps.Submissions.Submit(sub)
	if errors.Is(err, intake.ErrClosed) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("Submit failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, submitResp{
		Message:      "Claim submitted for processing",
		Status:       "processing",
		SubmissionID: task.ID(),
	})
}

func (s *Server) handleClaimResults(w http.ResponseWriter, r *http.Request) {
	all, err := s.deps.Records.All()
	if err != nil {
		s.writeStoreError(w, r, err, "No claim results found")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleClaimResult(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimId")
	rec, err := s.deps.Records.FindClaim(claimID)
	if err != nil {
		s.writeStoreError(w, r, err, "Claim "+claimID+" not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSubmitterClaims(w http.ResponseWriter, r *http.Request) {
	submitterID := chi.URLParam(r, "submitterId")
	records, err := s.deps.Records.Submitter(submitterID)
	if err != nil {
		s.writeStoreError(w, r, err, "No claims for submitter "+submitterID)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSubmitterClaim(w http.ResponseWriter, r *http.Request) {
	submitterID := chi.URLParam(r, "submitterId")
	claimID := chi.URLParam(r, "claimId")
	rec, err := s.deps.Records.Claim(submitterID, claimID)
	if err != nil {
		s.writeStoreError(w, r, err, "Claim "+claimID+" not found for submitter "+submitterID)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "submissionId")
	task, ok := s.deps.Submissions.Task(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Run "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, task.Log())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResp{
		Status:   "ok",
		Mode:     s.deps.Mode,
		Tools:    []tools.Name{},
		Oracle:   oracleInfo{Provider: s.deps.LLM.Provider, Model: s.deps.LLM.Model},
		InFlight: s.deps.Submissions.InFlight(),
	}
	if s.deps.Tools != nil {
		resp.Tools = s.deps.Tools.Names()
	}
	if s.deps.Knowledge != nil {
		resp.KnowledgeChunks = s.deps.Knowledge.Chunks()
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeStoreError maps ErrNotFound to 404 and anything else to 500
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("Store read failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, "failed to read claim results")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}
