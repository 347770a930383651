// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxRemoteBodyBytes caps how much remote content is read per fetch. Remote
// content follows the same hard size limit as patch documents.
const maxRemoteBodyBytes = 5 << 20

// Response is the fetch result handed back to the loader: the HTTP status
// plus a JSON-decoding accessor over the body.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the response body into the provided value.
func (r *Response) DecodeJSON(into any) error {
	if err := json.Unmarshal(r.Body, into); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Fetcher is the network contract implemented by the host application.
// [HTTPFetcher] is the default implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// HTTPFetcher fetches remote content over plain HTTP using net/http.
// The zero value uses http.DefaultClient.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch implements [Fetcher]. The request honors ctx cancellation and
// deadlines, and the body read is capped at the remote-content size limit.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body of %s: %w", url, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
