package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes bounds the text a backend may return.
const maxResponseBytes = 8 << 20

// HTTPExtractor talks to an OCR server that accepts a multipart upload (field "file",
// optional "language") and answers {"text": "..."}.
//
// 400, 415 and 422 answers mean the document could not be read (ErrDecode); every other
// failure is ErrUnavailable.
type HTTPExtractor struct {
	endpoint string
	language string
	client   *http.Client
}

// NewHTTPExtractor builds a client for endpoint. A nil client gets an
// OpenTelemetry-instrumented transport; deadlines come from the caller's context.
func NewHTTPExtractor(endpoint, language string, client *http.Client) *HTTPExtractor {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &HTTPExtractor{endpoint: endpoint, language: language, client: client}
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Extract uploads the document and returns the raw recognized text.
func (e *HTTPExtractor) Extract(ctx context.Context, in Input) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", in.Filename)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if _, err := part.Write(in.Content); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if e.language != "" {
		if err := w.WriteField("language", e.language); err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out extractResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out)

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnsupportedMediaType,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return "", fmt.Errorf("%w: backend answered %d %s", ErrDecode, resp.StatusCode, out.Error)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: backend answered %d", ErrUnavailable, resp.StatusCode)
	case decodeErr != nil:
		return "", fmt.Errorf("%w: invalid response body: %v", ErrUnavailable, decodeErr)
	}
	return out.Text, nil
}
