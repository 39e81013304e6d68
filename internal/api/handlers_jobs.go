package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/txt2epub/internal/pipeline"
	"github.com/dgallion1/txt2epub/internal/render"
)

// lookupJob resolves the {jobID} URL parameter, writing a 404 when unknown.
func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	jobID := chi.URLParam(r, "jobID")
	if !pipeline.ValidID(jobID) {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	return job
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":     snap.ID,
		"status":     snap.Status,
		"phase":      snap.Phase,
		"filename":   filepath.Base(snap.Filename),
		"progress":   snap.Progress,
		"created_at": snap.CreatedAt,
		"updated_at": snap.UpdatedAt,
	})
}

func (s *Server) handleJobDownload(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
	case pipeline.StatusFailed:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   "conversion failed",
			"failure": snap.Progress.Failure,
			"errors":  snap.Progress.Errors,
		})
		return
	default:
		jsonError(w, "conversion not finished: "+string(snap.Status), http.StatusConflict)
		return
	}

	out, _ := job.OutputPath()
	f, err := os.Open(out)
	if err != nil {
		s.log.Error("open archive", "job_id", snap.ID, "error", err)
		jsonError(w, "archive no longer available", http.StatusGone)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		jsonError(w, "archive no longer available", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", render.Mimetype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(out)}))
	http.ServeContent(w, r, filepath.Base(out), info.ModTime(), f)
}
