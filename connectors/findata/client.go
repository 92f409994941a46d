// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

// Package findata provides the Financial Datasets API connector: an
// authenticated read-only HTTP client plus the fixed catalogue of query
// tools exposed to the analyst team.
package findata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"finsight/platform/connectors/base"
	"finsight/platform/shared/logger"
)

const (
	// DefaultBaseURL is the production Financial Datasets API endpoint.
	DefaultBaseURL = "https://api.financialdatasets.ai"

	// APIKeyHeader is the authentication header expected by the service.
	APIKeyHeader = "X-API-KEY"
)

// Client issues authenticated GET requests against the Financial Datasets
// API and normalizes every failure mode into a terminal string.
//
// The contract is deliberately unusual: Get never returns a Go error. Its
// caller is the tool-executing side of an LLM conversation, which must
// always receive some parsable text to reason over. An error page is still
// information to a model, an exception is not. Success bodies pass through
// verbatim; failures become base.ErrorPayload documents.
//
// The credential is fixed at construction and never mutated afterwards, so
// concurrent requests share it without locking.
type Client struct {
	baseURL    string
	credential string
	httpClient base.HTTPClient
	logger     *logger.Logger
}

// Config contains configuration for the Financial Datasets client.
type Config struct {
	BaseURL    string         // Optional: API base URL (default: DefaultBaseURL)
	Credential string         // API key; empty means every call fails fast with a config error
	Logger     *logger.Logger // Optional: structured logger (default: component "findata")
}

// NewClient creates a Financial Datasets client. An invalid BaseURL override
// is logged and replaced by the production default rather than failing the
// service start.
func NewClient(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = logger.New("findata")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	} else if err := base.ValidateBaseURL(baseURL); err != nil {
		log.Warn("", "Invalid base URL override, using default", map[string]interface{}{
			"base_url": base.SanitizeLogString(baseURL),
			"error":    err.Error(),
		})
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: cfg.Credential,
		httpClient: &http.Client{},
		logger:     log,
	}
}

// Configured reports whether a credential is present. Used by readiness
// reporting; calls themselves re-check and fail fast with a config payload.
func (c *Client) Configured() bool {
	return c.credential != ""
}

// Get performs a single blocking GET against baseURL/endpoint with the given
// query parameters and returns the outcome as a terminal string:
//
//   - no credential: {"kind":"config","message":"missing credential"},
//     without any network call;
//   - HTTP 2xx: the response body, verbatim;
//   - anything else: {"kind":"request_failed","url":...,"message":...,
//     "raw_body":...} with the body included whenever a response arrived.
//
// Parameters are URL-encoded; values are formatted with %v so numeric
// defaults render naturally. There are no retries and no client-side
// timeout: transient upstream failures surface immediately and the model
// decides whether re-querying is worth it.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]interface{}) string {
	if c.credential == "" {
		c.logger.Error("", "Financial data request rejected: no credential configured", map[string]interface{}{
			"endpoint": endpoint,
		})
		return base.ErrorPayload{Kind: base.KindConfig, Message: "missing credential"}.JSON()
	}

	reqURL, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		c.logger.Error("", "Failed to build request URL", map[string]interface{}{
			"endpoint": endpoint,
			"error":    err.Error(),
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			Message: fmt.Sprintf("invalid endpoint %q: %v", endpoint, err),
		}.JSON()
	}

	if len(params) > 0 {
		values := url.Values{}
		for key, val := range params {
			values.Set(key, fmt.Sprintf("%v", val))
		}
		reqURL.RawQuery = values.Encode()
	}
	resolved := reqURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		c.logger.Error("", "Failed to create request", map[string]interface{}{
			"url":   resolved,
			"error": err.Error(),
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			URL:     resolved,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}.JSON()
	}
	req.Header.Set(APIKeyHeader, c.credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("", "Financial data request failed", map[string]interface{}{
			"url":   resolved,
			"error": base.SanitizeLogString(err.Error()),
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			URL:     resolved,
			Message: err.Error(),
		}.JSON()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("", "Failed to read response body", map[string]interface{}{
			"url":    resolved,
			"status": resp.StatusCode,
			"error":  err.Error(),
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			URL:     resolved,
			Message: fmt.Sprintf("failed to read response: %v", err),
		}.JSON()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.ErrorWithCode("", "Financial data request returned error status", resp.StatusCode, nil, map[string]interface{}{
			"url":  resolved,
			"body": base.SanitizeLogString(string(body)),
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			URL:     resolved,
			Message: fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			RawBody: string(body),
		}.JSON()
	}

	return string(body)
}

// SetHTTPClient sets a custom HTTP client for testing.
func (c *Client) SetHTTPClient(client base.HTTPClient) {
	c.httpClient = client
}
