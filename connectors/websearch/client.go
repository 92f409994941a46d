// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

// Package websearch provides the web search connector backing the team's
// web_search tool. It queries the DuckDuckGo Instant Answer API, which
// needs no credential, and flattens the response into a compact result
// list suitable for model consumption.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finsight/platform/connectors/base"
	"finsight/platform/shared/logger"
)

const (
	// DefaultBaseURL is the DuckDuckGo Instant Answer endpoint.
	DefaultBaseURL = "https://api.duckduckgo.com"

	// DefaultMaxResults bounds the flattened result list.
	DefaultMaxResults = 5

	// DefaultTimeout caps a single search round trip.
	DefaultTimeout = 15 * time.Second
)

// Client performs web searches. Like the financial data client it never
// returns a Go error from Search: failures become base.ErrorPayload
// documents the model can read.
type Client struct {
	baseURL    string
	httpClient base.HTTPClient
	logger     *logger.Logger
}

// Config contains configuration for the web search client.
type Config struct {
	BaseURL string         // Optional: search API base URL (default: DefaultBaseURL)
	Logger  *logger.Logger // Optional: structured logger (default: component "websearch")
}

// Result is one flattened search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// searchOutput is the document handed back to the model on success.
type searchOutput struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// ddgTopic is a RelatedTopics entry. Topic groups nest one level deep.
type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

// ddgResponse is the subset of the Instant Answer schema we use.
type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Answer        string     `json:"Answer"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// NewClient creates a web search client. An invalid BaseURL override is
// logged and replaced by the default.
func NewClient(cfg Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = logger.New("websearch")
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
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     log,
	}
}

// Search runs a query and returns a terminal string: on success a JSON
// document with a results list, otherwise an error payload.
func (c *Client) Search(ctx context.Context, query string, maxResults int) string {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("no_html", "1")
	values.Set("no_redirect", "1")
	values.Set("skip_disambig", "1")
	resolved := c.baseURL + "/?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved, nil)
	if err != nil {
		c.logger.Error("", "Failed to create search request", map[string]interface{}{
			"error": err.Error(),
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			URL:     resolved,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}.JSON()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("", "Web search request failed", map[string]interface{}{
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
		c.logger.Error("", "Failed to read search response", map[string]interface{}{
			"url":   resolved,
			"error": err.Error(),
		})
		return base.ErrorPayload{
			Kind:    base.KindRequestFailed,
			URL:     resolved,
			Message: fmt.Sprintf("failed to read response: %v", err),
		}.JSON()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.ErrorWithCode("", "Web search returned error status", resp.StatusCode, nil, map[string]interface{}{
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

	var parsed ddgResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// Unexpected shape is still information; pass it through.
		return string(body)
	}

	out := searchOutput{Query: query, Results: flatten(parsed, maxResults)}
	encoded, err := json.Marshal(out)
	if err != nil {
		return string(body)
	}
	return string(encoded)
}

// flatten folds the instant-answer fields and related topics into a single
// bounded result list, abstract first.
func flatten(parsed ddgResponse, maxResults int) []Result {
	results := make([]Result, 0, maxResults)

	if parsed.Answer != "" {
		results = append(results, Result{Title: parsed.Answer})
	}
	if parsed.AbstractText != "" && len(results) < maxResults {
		results = append(results, Result{
			Title:   parsed.Heading,
			URL:     parsed.AbstractURL,
			Snippet: parsed.AbstractText,
		})
	}

	var walk func(topics []ddgTopic)
	walk = func(topics []ddgTopic) {
		for _, topic := range topics {
			if len(results) >= maxResults {
				return
			}
			if len(topic.Topics) > 0 {
				walk(topic.Topics)
				continue
			}
			if topic.Text == "" {
				continue
			}
			results = append(results, Result{Title: topic.Text, URL: topic.FirstURL})
		}
	}
	walk(parsed.RelatedTopics)

	return results
}

// SetHTTPClient sets a custom HTTP client for testing.
func (c *Client) SetHTTPClient(client base.HTTPClient) {
	c.httpClient = client
}
