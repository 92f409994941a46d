// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/platform/connectors/base"
)

type mockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	return nil, errors.New("no mock configured")
}

func httpResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestSearchFlattensInstantAnswer(t *testing.T) {
	client := NewClient(Config{})

	var captured *http.Request
	client.SetHTTPClient(&mockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			captured = req
			return httpResponse(http.StatusOK, `{
				"Heading": "Nifty 50",
				"AbstractText": "The Nifty 50 is an Indian stock market index.",
				"AbstractURL": "https://en.wikipedia.org/wiki/NIFTY_50",
				"Answer": "",
				"RelatedTopics": [
					{"Text": "BSE Sensex - Index of 30 companies", "FirstURL": "https://example.com/sensex"},
					{"Topics": [
						{"Text": "NSE - National Stock Exchange", "FirstURL": "https://example.com/nse"}
					]}
				]
			}`), nil
		},
	})

	result := client.Search(context.Background(), "nifty 50 index", 0)

	require.NotNil(t, captured)
	query := captured.URL.Query()
	assert.Equal(t, "nifty 50 index", query.Get("q"))
	assert.Equal(t, "json", query.Get("format"))
	assert.Equal(t, "1", query.Get("no_html"))

	var out searchOutput
	require.NoError(t, json.Unmarshal([]byte(result), &out))
	assert.Equal(t, "nifty 50 index", out.Query)
	require.Len(t, out.Results, 3)
	assert.Equal(t, "Nifty 50", out.Results[0].Title)
	assert.Equal(t, "The Nifty 50 is an Indian stock market index.", out.Results[0].Snippet)
	assert.Equal(t, "BSE Sensex - Index of 30 companies", out.Results[1].Title)
	assert.Equal(t, "NSE - National Stock Exchange", out.Results[2].Title)
}

func TestSearchCapsResults(t *testing.T) {
	client := NewClient(Config{})
	client.SetHTTPClient(&mockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return httpResponse(http.StatusOK, `{
				"RelatedTopics": [
					{"Text": "one", "FirstURL": "https://example.com/1"},
					{"Text": "two", "FirstURL": "https://example.com/2"},
					{"Text": "three", "FirstURL": "https://example.com/3"}
				]
			}`), nil
		},
	})

	result := client.Search(context.Background(), "query", 2)

	var out searchOutput
	require.NoError(t, json.Unmarshal([]byte(result), &out))
	assert.Len(t, out.Results, 2)
}

func TestSearchErrorStatus(t *testing.T) {
	client := NewClient(Config{})
	client.SetHTTPClient(&mockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return httpResponse(http.StatusServiceUnavailable, "upstream down"), nil
		},
	})

	result := client.Search(context.Background(), "query", 5)

	payload, ok := base.IsErrorPayload(result)
	require.True(t, ok)
	assert.Equal(t, base.KindRequestFailed, payload.Kind)
	assert.Equal(t, "HTTP 503 Service Unavailable", payload.Message)
	assert.Equal(t, "upstream down", payload.RawBody)
}

func TestSearchTransportError(t *testing.T) {
	client := NewClient(Config{})
	client.SetHTTPClient(&mockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: i/o timeout")
		},
	})

	result := client.Search(context.Background(), "query", 5)

	payload, ok := base.IsErrorPayload(result)
	require.True(t, ok)
	assert.Equal(t, base.KindRequestFailed, payload.Kind)
	assert.Contains(t, payload.Message, "i/o timeout")
}

func TestSearchUnparsableBodyPassesThrough(t *testing.T) {
	client := NewClient(Config{})
	client.SetHTTPClient(&mockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return httpResponse(http.StatusOK, "<html>not json</html>"), nil
		},
	})

	result := client.Search(context.Background(), "query", 5)
	assert.Equal(t, "<html>not json</html>", result)
}
