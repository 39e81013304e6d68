package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/txt2epub/internal/assets"
	"github.com/dgallion1/txt2epub/internal/convert"
	"github.com/dgallion1/txt2epub/internal/parser"
	"github.com/dgallion1/txt2epub/internal/pipeline"
)

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	images := r.MultipartForm.File["images"]
	for _, fh := range images {
		name := sanitizeFilename(fh.Filename)
		if !assets.SupportedExtensions[strings.ToLower(filepath.Ext(name))] {
			jsonError(w, fmt.Sprintf("unsupported image type: %s", filepath.Ext(name)), http.StatusBadRequest)
			return
		}
	}

	jobID := pipeline.NewID()
	dir := filepath.Join(s.cfg.WorkDir, "jobs", jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error("create job dir", "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}

	source := filepath.Join(dir, filename)
	if status, err := s.saveUpload(file, source); err != nil {
		os.RemoveAll(dir)
		jsonError(w, err.Error(), status)
		return
	}

	var imageDir string
	if len(images) > 0 {
		imageDir = filepath.Join(dir, "images")
		if err := os.MkdirAll(imageDir, 0o755); err != nil {
			os.RemoveAll(dir)
			jsonError(w, "failed to store upload", http.StatusInternalServerError)
			return
		}
		for _, fh := range images {
			if status, err := s.saveImage(fh, imageDir); err != nil {
				os.RemoveAll(dir)
				jsonError(w, err.Error(), status)
				return
			}
		}
	}

	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	job := pipeline.NewJobWithID(jobID, convert.Request{
		Source:   source,
		ImageDir: imageDir,
		Output:   filepath.Join(dir, stem+".epub"),
		Title:    strings.TrimSpace(r.FormValue("title")),
		Author:   strings.TrimSpace(r.FormValue("author")),
		Language: strings.TrimSpace(r.FormValue("language")),
	})
	job.Dir = dir

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       job.ID,
		"status":       job.Snapshot().Status,
		"filename":     filename,
		"images":       len(images),
		"poll_url":     fmt.Sprintf("/api/jobs/%s", job.ID),
		"download_url": fmt.Sprintf("/api/jobs/%s/epub", job.ID),
	})
}

// saveUpload copies src to dst, enforcing the upload size limit.
func (s *Server) saveUpload(src io.Reader, dst string) (int, error) {
	out, err := os.Create(dst)
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to store upload")
	}
	n, err := io.Copy(out, io.LimitReader(src, s.cfg.MaxUploadBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if n > s.cfg.MaxUploadBytes {
		return http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return 0, nil
}

func (s *Server) saveImage(fh *multipart.FileHeader, dir string) (int, error) {
	f, err := fh.Open()
	if err != nil {
		return http.StatusBadRequest, fmt.Errorf("failed to open image %s", fh.Filename)
	}
	defer f.Close()
	return s.saveUpload(f, filepath.Join(dir, sanitizeFilename(fh.Filename)))
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "_" {
		name = "unnamed"
	}
	return name
}
