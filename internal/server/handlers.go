package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"examradar/internal/domain"
	"examradar/internal/service"
	"examradar/internal/upload"
)

const multipartMemory = 8 << 20

// requestError is a client error with a fixed status and message.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

type healthResponse struct {
	OK         bool   `json:"ok"`
	Time       string `json:"time"`
	Uptime     string `json:"uptime"`
	Embedder   string `json:"embedder"`
	Summarizer string `json:"summarizer"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		OK:         true,
		Time:       time.Now().UTC().Format(time.RFC3339),
		Uptime:     time.Since(s.startTime).Round(time.Second).String(),
		Embedder:   s.analyzer.EmbedderName(),
		Summarizer: s.analyzer.SummarizerName(),
	})
}

type analyzeTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAnalyzeText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, decodeError(err))
		return
	}
	var req analyzeTextRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, decodeError(err))
		return
	}
	report, err := s.analyzer.AnalyzeText(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			err = service.ErrNoFiles
		}
		writeError(w, r, decodeError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) > s.maxFiles() {
		writeError(w, r, badRequest("Too many files (max %d)", s.maxFiles()))
		return
	}

	var report *domain.Report
	err := upload.With(s.cfg.UploadDir, func(b *upload.Batch) error {
		var err error
		report, err = s.analyzer.AnalyzeFiles(r.Context(), spool(b, headers))
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// spool copies each upload into the batch. A file that cannot be copied is
// logged and left out; the rest are still analyzed.
func spool(b *upload.Batch, headers []*multipart.FileHeader) []service.SourceFile {
	files := make([]service.SourceFile, 0, len(headers))
	for _, fh := range headers {
		f, err := b.AddMultipart(fh)
		if err != nil {
			log.Warn().Err(err).Str("file", fh.Filename).Msg("Skipping upload that could not be stored")
			continue
		}
		files = append(files, service.SourceFile{Name: f.Name, Path: f.Path})
	}
	return files
}

func (s *Server) maxBody() int64 {
	mb := s.cfg.MaxBodyMB
	if mb <= 0 {
		mb = 25
	}
	return int64(mb) << 20
}

func (s *Server) maxFiles() int {
	if s.cfg.MaxUploadFiles <= 0 {
		return 8
	}
	return s.cfg.MaxUploadFiles
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &requestError{status: http.StatusRequestEntityTooLarge, msg: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit)}
	case errors.Is(err, service.ErrNoFiles):
		return err
	}
	return badRequest("Invalid request: %v", err)
}

// writeError maps err to a status code and writes {"error": msg}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, err.Error()
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		status = reqErr.status
	case errors.Is(err, service.ErrNoFiles):
		status, msg = http.StatusBadRequest, "No files uploaded"
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
