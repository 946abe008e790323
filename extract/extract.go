package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"docanalyzer/types"
)

// Extractor sends stored files to the OCR service and returns the raw
// extracted text.
type Extractor struct {
	url    string
	client *http.Client
}

type ocrResponse struct {
	Text string `json:"text"`
}

func New(url string) *Extractor {
	return &Extractor{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// ExtractText uploads the file at path to the OCR service. PDF files
// are validated with pdfcpu first so corrupt uploads fail before the
// network round trip.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", &types.ExtractionError{Err: fmt.Errorf("%w: %s", types.ErrFileNotFound, path)}
		}
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to stat file: %w", err)}
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if _, err := api.PageCountFile(path); err != nil {
			return "", &types.ExtractionError{Err: fmt.Errorf("invalid PDF file %s: %w", path, err)}
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to open file: %w", err)}
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to create form file: %w", err)}
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to copy file into form: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to finalize form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, &buf)
	if err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to reach OCR service: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to read OCR response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &types.ExtractionError{Err: fmt.Errorf("OCR service error: status %d, body: %s", resp.StatusCode, string(body))}
	}

	var ocr ocrResponse
	if err := json.Unmarshal(body, &ocr); err != nil {
		return "", &types.ExtractionError{Err: fmt.Errorf("failed to unmarshal OCR response: %w", err)}
	}

	return ocr.Text, nil
}
