// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package base

import (
	"encoding/json"
	"net/http"
)

// Error kinds carried by ErrorPayload. These are the only kinds first-party
// connectors produce; layers above a connector add nothing to the taxonomy.
const (
	// KindConfig marks a failure detected before any network I/O, such as a
	// missing credential.
	KindConfig = "config"

	// KindRequestFailed marks a transport error, a timeout, or a non-2xx
	// response from the remote service.
	KindRequestFailed = "request_failed"
)

// HTTPClient is an interface for HTTP client operations (enables testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrorPayload is the structured error document a connector returns in place
// of a Go error. The consumer is an LLM-driven tool-caller, not conventional
// application code: it must always receive a terminal string it can reason
// over, so failures are serialized rather than raised.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
	RawBody string `json:"raw_body,omitempty"`
}

// JSON serializes the payload to its wire form. Marshaling a flat string
// struct cannot realistically fail, but the fallback keeps the never-throw
// contract airtight.
func (e ErrorPayload) JSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return `{"kind":"request_failed","message":"failed to serialize error payload"}`
	}
	return string(data)
}

// IsErrorPayload reports whether a connector result is a structured error
// document rather than a success body. Success bodies are opaque upstream
// JSON and never carry the "kind" discriminator.
func IsErrorPayload(s string) (ErrorPayload, bool) {
	var p ErrorPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return ErrorPayload{}, false
	}
	if p.Kind != KindConfig && p.Kind != KindRequestFailed {
		return ErrorPayload{}, false
	}
	return p, true
}
