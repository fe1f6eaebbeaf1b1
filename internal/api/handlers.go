package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/internal/report"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runIDs, err := s.reader.ListRunIDs(r.Context(), 100)
	if err != nil {
		s.logger.Error("listing runs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runIDs})
}

func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}
	artifacts, err := s.reader.GetArtifactsByRun(r.Context(), runID)
	if err != nil {
		s.logger.Error("fetching artifacts for %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch artifacts")
		return
	}
	if len(artifacts) == 0 {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"run_id": runID, "artifacts": artifacts})
}

func (s *Server) handleRunManifest(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}
	manifest, err := s.reader.GetRunManifest(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "manifest not found")
		return
	}
	writeJSON(w, http.StatusOK, manifest)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run ID")
		return
	}

	manifest, err := s.reader.GetRunManifest(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, "manifest not found")
		return
	}
	artifacts, err := s.reader.GetArtifactsByRun(r.Context(), runID)
	if err != nil {
		s.logger.Error("fetching artifacts for %s: %v", runID, err)
		writeError(w, http.StatusInternalServerError, "failed to fetch artifacts")
		return
	}

	var pooled *impute.PooledEstimate
	var runs []impute.RunEstimate
	for _, artifact := range artifacts {
		switch artifact.Kind {
		case core.ArtifactPooledEstimate:
			var p impute.PooledEstimate
			if err := decodePayload(artifact.Payload, &p); err == nil {
				pooled = &p
			}
		case core.ArtifactRunEstimate:
			var est impute.RunEstimate
			if err := decodePayload(artifact.Payload, &est); err == nil {
				runs = append(runs, est)
			}
		}
	}
	if pooled == nil {
		writeError(w, http.StatusNotFound, "no pooled estimate stored for run")
		return
	}

	// Artifacts come back newest-first; the report lists runs in index order.
	sortRunsByIndex(runs)

	md := report.BuildMarkdown(manifest, pooled, runs)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(report.RenderHTML(md))
}

// decodePayload converts a stored payload (typed struct from the in-memory
// ledger, decoded JSON map from postgres) into the target type.
func decodePayload(payload interface{}, target interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func sortRunsByIndex(runs []impute.RunEstimate) {
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].RunIndex < runs[j].RunIndex
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
