package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examradar/internal/config"
	"examradar/internal/domain"
	"examradar/internal/service"
	"examradar/internal/upload"
)

const france = "Q1 What is the capital of France?\nQ2 What is the capital of France?\nQ3 Explain the process of photosynthesis."

// recordingAnalyzer wraps a real analyzer and records the files it saw.
type recordingAnalyzer struct {
	*service.Analyzer
	files  []service.SourceFile
	exists []bool
	err    error
}

func (a *recordingAnalyzer) AnalyzeFiles(ctx context.Context, files []service.SourceFile) (*domain.Report, error) {
	a.files = files
	for _, f := range files {
		_, err := os.Stat(f.Path)
		a.exists = append(a.exists, err == nil)
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.Analyzer.AnalyzeFiles(ctx, files)
}

func newTestServer(t *testing.T) (*Server, *recordingAnalyzer) {
	t.Helper()
	cfg := config.Default().Server
	cfg.UploadDir = t.TempDir()
	cfg.MaxUploadFiles = 2
	cfg.MaxBodyMB = 1
	a := &recordingAnalyzer{Analyzer: service.NewAnalyzer(service.Options{})}
	return New(cfg, a), a
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func multipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "none", body["embedder"])
	assert.Equal(t, "none", body["summarizer"])
	assert.NotEmpty(t, body["time"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze-text", nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAnalyzeText(t *testing.T) {
	s, _ := newTestServer(t)
	payload, _ := json.Marshal(map[string]string{"text": france})
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-text", bytes.NewReader(payload))

	rec, body := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["snippetsCount"])
	clusters := body["clusters"].([]any)
	require.Len(t, clusters, 2)
	assert.EqualValues(t, 2, clusters[0].(map[string]any)["count"])
	assert.Len(t, body["studyPlan"], 28)
	assert.NotContains(t, body, "message")
}

func TestAnalyzeText_Empty(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-text", strings.NewReader(`{"text":"   "}`))

	rec, body := do(t, s, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.NoDataMessage, body["message"])
	assert.EqualValues(t, 0, body["snippetsCount"])
	assert.Empty(t, body["clusters"])
	assert.NotNil(t, body["clusters"])
}

func TestAnalyzeText_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := do(t, s, httptest.NewRequest(http.MethodPost, "/api/analyze-text", strings.NewReader(`{"text":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "Invalid request")

	big := `{"text":"` + strings.Repeat("a", 2<<20) + `"}`
	rec, _ = do(t, s, httptest.NewRequest(http.MethodPost, "/api/analyze-text", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeUpload(t *testing.T) {
	s, a := newTestServer(t)
	req := multipartRequest(t, map[string]string{"2019.txt": france})

	rec, body := do(t, s, req)

	require.Equal(t, http.StatusOK, rec.Code, body)
	assert.EqualValues(t, 3, body["snippetsCount"])
	clusters := body["clusters"].([]any)
	assert.Equal(t, []any{"2019.txt"}, clusters[0].(map[string]any)["files"])

	require.Len(t, a.files, 1)
	assert.Equal(t, "2019.txt", a.files[0].Name)
	assert.Equal(t, []bool{true}, a.exists, "file present during analysis")
	assert.NoFileExists(t, a.files[0].Path, "file removed afterwards")
}

func TestAnalyzeUpload_NoFiles(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := do(t, s, multipartRequest(t, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No files uploaded", body["error"])

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-upload", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec, body = do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No files uploaded", body["error"])
}

func TestAnalyzeUpload_TooManyFiles(t *testing.T) {
	s, a := newTestServer(t)
	req := multipartRequest(t, map[string]string{"a.txt": france, "b.txt": france, "c.txt": france})

	rec, body := do(t, s, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "max 2")
	assert.Nil(t, a.files)
}

func TestAnalyzeUpload_InternalErrorCleansUp(t *testing.T) {
	s, a := newTestServer(t)
	a.err = errors.New("disk on fire")

	rec, body := do(t, s, multipartRequest(t, map[string]string{"a.txt": france}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "disk on fire", body["error"])
	require.Len(t, a.files, 1)
	assert.NoFileExists(t, a.files[0].Path)
	entries, err := os.ReadDir(s.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpool_SkipsUnreadableUpload(t *testing.T) {
	req := multipartRequest(t, map[string]string{"2019.txt": france})
	require.NoError(t, req.ParseMultipartForm(multipartMemory))
	headers := append(req.MultipartForm.File["files"], &multipart.FileHeader{Filename: "broken.txt"})

	err := upload.With(t.TempDir(), func(b *upload.Batch) error {
		files := spool(b, headers)

		require.Len(t, files, 1)
		assert.Equal(t, "2019.txt", files[0].Name)
		assert.FileExists(t, files[0].Path)
		return nil
	})

	require.NoError(t, err)
}

func TestSpool_AllUnreadableMeansNoFiles(t *testing.T) {
	err := upload.With(t.TempDir(), func(b *upload.Batch) error {
		files := spool(b, []*multipart.FileHeader{{Filename: "a.txt"}, {Filename: "b.txt"}})

		assert.Empty(t, files)
		_, err := service.NewAnalyzer(service.Options{}).AnalyzeFiles(context.Background(), files)
		return err
	})

	assert.ErrorIs(t, err, service.ErrNoFiles)
}
