package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/pipeline"
)

func newTestServer(t *testing.T, mutate func(*config.MainConfig)) (*Server, *config.MainConfig) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.UploadDir = filepath.Join(dir, "uploads")
	cfg.OutputDir = filepath.Join(dir, "output")
	cfg.ArchiveDir = filepath.Join(dir, "archive")
	if mutate != nil {
		mutate(cfg)
	}

	p, err := pipeline.New(cfg, &logging.Nop)
	require.NoError(t, err)

	s, err := New(cfg, p, &logging.Nop)
	require.NoError(t, err)
	return s, cfg
}

type upload struct {
	field, name, content string
}

func uploadRequest(t *testing.T, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestUpload(t *testing.T) {
	s, cfg := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t,
		upload{FieldSpoFile, "spo.csv", "name,amount\nAlice,\"1,000\"\nBob,40\n"},
		upload{FieldFinFile, "fin.csv", "name,amount\nAlice,1000\nBob,50\nBob,n/a\n"},
	))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.JSONEq(t, `{
		"discrepancies": [
			{"name": "Bob", "amount_numeric_fin": 50, "amount_numeric_spo": 40, "difference": 10}
		],
		"total_difference": 10
	}`, rec.Body.String())

	entries, err := os.ReadDir(cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploads are removed after the request")
}

func TestUploadBalanced(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t,
		upload{FieldSpoFile, "spo.csv", "name,amount\nA,5\n"},
		upload{FieldFinFile, "fin.csv", "amount,name\n5,A\n"},
	))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"discrepancies": [], "total_difference": 0}`, rec.Body.String())
}

func TestUploadKeepUploads(t *testing.T) {
	s, cfg := newTestServer(t, func(c *config.MainConfig) { c.Server.KeepUploads = true })

	rec := serve(s, uploadRequest(t,
		upload{FieldSpoFile, "../../spo.csv", "name,amount\n"},
		upload{FieldFinFile, "fin.csv", "name,amount\n"},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	entries, err := os.ReadDir(cfg.UploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "..")
	}
}

func TestUploadMissingFile(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t, upload{FieldSpoFile, "spo.csv", "name,amount\n"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errMissingFiles, decodeError(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errMissingFiles, decodeError(t, rec))
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		spo    upload
		fin    upload
		status int
		substr string
	}{
		{
			name:   "missing amount column",
			spo:    upload{FieldSpoFile, "spo.csv", "name,total\nA,1\n"},
			fin:    upload{FieldFinFile, "fin.csv", "name,amount\nA,1\n"},
			status: http.StatusUnprocessableEntity,
			substr: "amount",
		},
		{
			name:   "unsupported format",
			spo:    upload{FieldSpoFile, "spo.pdf", "%PDF"},
			fin:    upload{FieldFinFile, "fin.csv", "name,amount\n"},
			status: http.StatusUnsupportedMediaType,
			substr: "unsupported",
		},
		{
			name:   "empty file",
			spo:    upload{FieldSpoFile, "spo.csv", "name,amount\n"},
			fin:    upload{FieldFinFile, "fin.csv", ""},
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			rec := serve(s, uploadRequest(t, tt.spo, tt.fin))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.substr)
		})
	}
}

func TestUploadFileNames(t *testing.T) {
	tests := []struct {
		name     string
		spo, fin string
	}{
		{"non-ascii names", "정산.csv", "재무.csv"},
		{"no extension", "spo", "fin"},
		{"upper-case extension", "SPO.CSV", "fin.Csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			rec := serve(s, uploadRequest(t,
				upload{FieldSpoFile, tt.spo, "name,amount\nA,1\n"},
				upload{FieldFinFile, tt.fin, "name,amount\nA,3\n"},
			))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.JSONEq(t, `{
				"discrepancies": [
					{"name": "A", "amount_numeric_fin": 3, "amount_numeric_spo": 1, "difference": 2}
				],
				"total_difference": 2
			}`, rec.Body.String())
		})
	}
}

func TestUploadUnsupportedNamesClientFile(t *testing.T) {
	s, cfg := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t,
		upload{FieldSpoFile, "정산.pdf", "%PDF"},
		upload{FieldFinFile, "fin.csv", "name,amount\n"},
	))

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	msg := decodeError(t, rec)
	assert.Contains(t, msg, `"정산.pdf"`)
	assert.NotContains(t, msg, cfg.UploadDir)

	entries, _ := os.ReadDir(cfg.UploadDir)
	assert.Empty(t, entries, "rejected uploads are never written")
}

func TestUploadNonFiniteTotal(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := serve(s, uploadRequest(t,
		upload{FieldSpoFile, "spo.csv", "name,amount\nBob,1\n"},
		upload{FieldFinFile, "fin.csv", "name,amount\nAlice,1e308\nAlice,1e308\n"},
	))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, decodeError(t, rec))
}

func TestUploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.MainConfig) { c.Server.MaxUploadMB = 1 })

	big := bytes.Repeat([]byte("a"), 2<<20)
	rec := serve(s, uploadRequest(t,
		upload{FieldSpoFile, "spo.csv", string(big)},
		upload{FieldFinFile, "fin.csv", "name,amount\n"},
	))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	rec := serve(s, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.UploadDir = dir

	tl := logging.NewTestLogger(t)
	p, err := pipeline.New(cfg, &tl.Logger)
	require.NoError(t, err)
	s, err := New(cfg, p, &tl.Logger)
	require.NoError(t, err)

	serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.True(t, tl.Contains(`"request_id"`))
	assert.True(t, tl.Contains("Handled request"))
}

func TestInvalidCleanupSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Server.CleanupSchedule = "every now and then"

	p, err := pipeline.New(cfg, &logging.Nop)
	require.NoError(t, err)

	_, err = New(cfg, p, &logging.Nop)
	assert.ErrorContains(t, err, "invalid cleanup schedule")
}

func TestCleanUploads(t *testing.T) {
	s, cfg := newTestServer(t, func(c *config.MainConfig) { c.Server.UploadRetention = 0 })

	require.NoError(t, os.MkdirAll(cfg.UploadDir, 0755))
	stale := filepath.Join(cfg.UploadDir, "stale.csv")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0644))

	s.cleanUploads()
	assert.NoFileExists(t, stale)
}
