package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const maxResponseBytes = 1 << 20

// HTTPBackend asks a remote service to score a feature vector.
//
// Request body:
//
//	{"features": [...], "input": "age", "output": "isAdult", "transform": "comparison"}
//
// Expected response: {"score": 0.83}.
type HTTPBackend struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

type scoreRequest struct {
	Features  []float64 `json:"features"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Transform string    `json:"transform"`
}

type scoreResponse struct {
	Score *float64 `json:"score"`
}

// NewHTTPBackend validates the endpoint and builds the backend.
func NewHTTPBackend(endpoint, apiKey string, client *http.Client, logger *slog.Logger) (*HTTPBackend, error) {
	if endpoint == "" {
		return nil, errors.New("http backend: endpoint is empty")
	}

	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("http backend: invalid endpoint %q", endpoint)
	}

	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPBackend{endpoint: endpoint, apiKey: apiKey, client: client, logger: logger}, nil
}

// Name implements Backend.
func (h *HTTPBackend) Name() string { return TypeHTTP }

// Predict implements Backend.
func (h *HTTPBackend) Predict(ctx context.Context, f Features) (float64, error) {
	body := scoreRequest{
		Features:  f.Vector(),
		Input:     f.Input.Path,
		Output:    f.Output.Path,
		Transform: string(f.Transform),
	}

	headers := map[string]string{}
	if h.apiKey != "" {
		headers["Authorization"] = "Bearer " + h.apiKey
	}

	raw, _, err := sendJSON(ctx, h.client, h.endpoint, body, headers, h.logger)
	if err != nil {
		return 0, err
	}

	var resp scoreResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("decode score: %w", err)
	}

	if resp.Score == nil {
		return 0, errors.New("response has no score")
	}

	return *resp.Score, nil
}

// sendJSON POSTs body as JSON and returns the raw response body.
func sendJSON(
	ctx context.Context,
	client *http.Client,
	endpoint string,
	body any,
	headers map[string]string,
	logger *slog.Logger,
) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode json: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Debug("predict.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logger.Warn("predict.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	logger.Debug("predict.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	return raw, resp.StatusCode, nil
}
