package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/workflow-builder/nodeq-mindmap/internal/analyze"
	"github.com/workflow-builder/nodeq-mindmap/internal/mapping"
)

const defaultHTTPTimeout = 30 * time.Second

// REST polls a JSON endpoint with GET requests.
type REST struct {
	cfg    mapping.DataSourceConfig
	client *http.Client
	logger *slog.Logger
}

// NewREST creates a REST connector. A nil client gets a default timeout.
func NewREST(cfg mapping.DataSourceConfig, client *http.Client, logger *slog.Logger) *REST {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &REST{cfg: cfg, client: client, logger: logger}
}

// Type returns mapping.SourceRESTAPI.
func (r *REST) Type() string { return mapping.SourceRESTAPI }

// Connect validates the endpoint URL.
func (r *REST) Connect(_ context.Context) error {
	u, err := url.Parse(r.cfg.Connection.APIEndpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q must be http or https", r.cfg.Connection.APIEndpoint)
	}

	r.logger.Info("source.rest.ready", "endpoint", u.Redacted())

	return nil
}

// Poll fetches the endpoint once.
func (r *REST) Poll(ctx context.Context) ([]any, error) {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.Connection.APIEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if creds := r.cfg.Connection.Credentials; creds != nil {
		switch {
		case creds.Token != "":
			req.Header.Set("Authorization", "Bearer "+creds.Token)
		case creds.Username != "":
			req.SetBasicAuth(creds.Username, creds.Password)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("source.rest.send_error", "req_id", reqID, "error", err)
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			r.logger.Warn("source.rest.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	r.logger.Debug("source.rest.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	if len(raw) == 0 {
		return nil, nil
	}

	doc, err := analyze.DecodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return records(doc, batchSize(r.cfg)), nil
}

// Close releases idle connections.
func (r *REST) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
