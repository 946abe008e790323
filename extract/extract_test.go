package extract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyzer/types"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractTextUploadsFile(t *testing.T) {
	var gotFilename, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		data, _ := io.ReadAll(file)
		gotBody = string(data)
		json.NewEncoder(w).Encode(map[string]string{"text": "scanned page text"})
	}))
	defer srv.Close()

	path := writeTempFile(t, "scan.png", "fake image bytes")

	text, err := New(srv.URL).ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "scanned page text", text)
	assert.Equal(t, "scan.png", gotFilename)
	assert.Equal(t, "fake image bytes", gotBody)
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := New("http://localhost:1").ExtractText(context.Background(), "/does/not/exist.pdf")
	require.Error(t, err)

	var extErr *types.ExtractionError
	assert.True(t, errors.As(err, &extErr))
	assert.True(t, errors.Is(err, types.ErrFileNotFound))
}

func TestExtractTextCorruptPDF(t *testing.T) {
	path := writeTempFile(t, "broken.pdf", "this is not a pdf")

	_, err := New("http://localhost:1").ExtractText(context.Background(), path)
	require.Error(t, err)

	var extErr *types.ExtractionError
	assert.True(t, errors.As(err, &extErr))
}

func TestExtractTextServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "ocr engine down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := writeTempFile(t, "scan.txt", "content")

	_, err := New(srv.URL).ExtractText(context.Background(), path)
	require.Error(t, err)

	var extErr *types.ExtractionError
	assert.True(t, errors.As(err, &extErr))
	assert.Contains(t, err.Error(), "ocr engine down")
}
