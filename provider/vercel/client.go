// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.vercel.com"

// Client is a minimal Vercel DNS API client. Team-scoped accounts thread
// their team id through every request as a query parameter.
type Client struct {
	apiURL     string
	token      string
	teamID     string
	httpClient *http.Client
}

func NewClient(apiURL, token, teamID string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		token:  token,
		teamID: teamID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vercel api status %d: %s", e.Status, e.Body)
}

type recordJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Value      string `json:"value"`
	TTL        int    `json:"ttl"`
	MXPriority int    `json:"mxPriority"`
	Priority   int    `json:"priority"`
}

type listResponse struct {
	Records    []recordJSON `json:"records"`
	Pagination struct {
		Count int   `json:"count"`
		Next  int64 `json:"next"`
	} `json:"pagination"`
}

type createRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	TTL      int    `json:"ttl,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

type createResponse struct {
	UID string `json:"uid"`
}

// ListRecords fetches every record of the domain, following pagination.
func (c *Client) ListRecords(ctx context.Context, domain string) ([]recordJSON, error) {
	var records []recordJSON
	until := int64(0)
	for {
		path := fmt.Sprintf("/v4/domains/%s/records?limit=100", url.PathEscape(domain))
		if until != 0 {
			path += "&until=" + strconv.FormatInt(until, 10)
		}
		data, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		var resp listResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("decode record list for %s: %w", domain, err)
		}
		records = append(records, resp.Records...)
		if resp.Pagination.Next == 0 {
			return records, nil
		}
		until = resp.Pagination.Next
	}
}

// CreateRecord creates a record and returns its id. The domain
// materializes on its first record; there is no separate zone call.
func (c *Client) CreateRecord(ctx context.Context, domain string, req createRequest) (string, error) {
	path := fmt.Sprintf("/v2/domains/%s/records", url.PathEscape(domain))
	data, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return "", err
	}
	var resp createResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode create response for %s: %w", domain, err)
	}
	return resp.UID, nil
}

// UpdateRecord rewrites an existing record in place.
func (c *Client) UpdateRecord(ctx context.Context, id string, req createRequest) error {
	path := fmt.Sprintf("/v1/domains/records/%s", url.PathEscape(id))
	_, err := c.do(ctx, http.MethodPatch, path, req)
	return err
}

// DeleteRecord removes a record by id.
func (c *Client) DeleteRecord(ctx context.Context, domain, id string) error {
	path := fmt.Sprintf("/v2/domains/%s/records/%s", url.PathEscape(domain), url.PathEscape(id))
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u := c.apiURL + path
	if c.teamID != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		u += sep + "teamId=" + url.QueryEscape(c.teamID)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
