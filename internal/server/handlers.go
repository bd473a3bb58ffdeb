// =============================================================================
// CSV Reconciler - HTTP Handlers
// =============================================================================
//
// This module implements the upload and health endpoints.
//
// UPLOAD FLOW:
//   1. Bound the request body and parse the multipart form
//   2. Save "spo_file" and "fin_file" under the upload directory
//   3. Run the pipeline on the saved files
//   4. Answer with the result JSON, or an {"error": msg} envelope
//   5. Remove the saved files (unless keep_uploads)
//
// =============================================================================

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/csv-reconciler/internal/ingest"
	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/pipeline"
	"github.com/ginjaninja78/csv-reconciler/internal/report"
	"github.com/ginjaninja78/csv-reconciler/internal/validation"
)

// Form field names of the upload endpoint.
const (
	FieldSpoFile = "spo_file"
	FieldFinFile = "fin_file"
)

const errMissingFiles = "Both 'spo_file' and 'fin_file' are required."

// defaultUploadExt is assumed for uploads whose name has no extension.
const defaultUploadExt = ".csv"

// multipartMemory is how much of a form is buffered before spilling to disk.
const multipartMemory = 32 << 20

// handleUpload saves both files, reconciles them and returns the result.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds %d MB.", s.cfg.Server.MaxUploadMB))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			log.Warn().Err(err).Msg("Malformed upload form")
		}
		respondWithError(w, http.StatusBadRequest, errMissingFiles)
		return
	}
	defer r.MultipartForm.RemoveAll()

	spoPath, err := s.saveFormFile(r, FieldSpoFile)
	if err != nil {
		s.respondSaveError(w, r, err)
		return
	}
	defer s.removeUpload(r, spoPath)

	finPath, err := s.saveFormFile(r, FieldFinFile)
	if err != nil {
		s.respondSaveError(w, r, err)
		return
	}
	defer s.removeUpload(r, finPath)

	res, err := s.pipeline.Run(r.Context(), pipeline.Request{FinPath: finPath, SpoPath: spoPath})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("Reconciliation request failed")
		}
		respondWithError(w, status, err.Error())
		return
	}

	// Encode before writing the status so a failure can still become a 500.
	var body bytes.Buffer
	if err := report.NewFormatter(report.FormatJSON).Format(&body, res.Reconciliation); err != nil {
		log.Error().Err(err).Msg("Failed to encode reconciliation result")
		respondWithError(w, http.StatusInternalServerError, "Failed to encode the reconciliation result.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// saveFormFile stores one uploaded form file under the upload directory. The
// input format is decided by the client's file name; a name without an
// extension is read as CSV.
func (s *Server) saveFormFile(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	name := uploadName(header)
	if filepath.Ext(name) == "" {
		name += defaultUploadExt
	}
	if _, err := ingest.DetectFormat(name); err != nil {
		return "", err
	}

	return s.files.SaveUpload(name, file)
}

func (s *Server) respondSaveError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, http.ErrMissingFile) {
		respondWithError(w, http.StatusBadRequest, errMissingFiles)
		return
	}
	if errors.Is(err, ingest.ErrUnsupportedFormat) {
		respondWithError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to save upload")
	respondWithError(w, http.StatusInternalServerError, "Failed to save upload.")
}

// removeUpload deletes a saved upload unless uploads are kept.
func (s *Server) removeUpload(r *http.Request, path string) {
	if s.cfg.Server.KeepUploads {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.FromContext(r.Context()).Warn().Err(err).Str("file", path).Msg("Failed to remove upload")
	}
}

func uploadName(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return header.Filename
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, validation.ErrMissingColumn), errors.Is(err, ingest.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError writes the {"error": msg} envelope.
func respondWithError(w http.ResponseWriter, status int, errMsg string) {
	respondWithJSON(w, status, map[string]string{"error": errMsg})
}
