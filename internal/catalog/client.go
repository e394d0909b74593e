// Package catalog provides a typed client for the metadata-catalog HTTP API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lakeview-dev/lakeview/internal/apierr"
)

const tracerName = "github.com/lakeview-dev/lakeview/internal/catalog"

// Client calls the metadata-catalog API with a caller-provided bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient builds a catalog client for the given API base URL.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("catalog base url is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// Search runs a full-text search over catalog entries.
func (c *Client) Search(ctx context.Context, token string, query SearchQuery) (SearchResult, error) {
	values := url.Values{}
	values.Set("query", query.Query)
	for _, entryType := range query.Types {
		values.Add("type", entryType)
	}
	for _, system := range query.Systems {
		values.Add("system", system)
	}
	if query.PageToken != "" {
		values.Set("pageToken", query.PageToken)
	}
	if query.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(query.PageSize))
	}

	var result SearchResult
	if err := c.get(ctx, token, "catalog search", "/v1/entries:search?"+values.Encode(), &result); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

// GetEntry fetches the full detail for one entry.
func (c *Client) GetEntry(ctx context.Context, token, entryID string) (Entry, error) {
	if strings.TrimSpace(entryID) == "" {
		return Entry{}, errors.New("entry id is required")
	}
	var entry Entry
	if err := c.get(ctx, token, "catalog entry", "/v1/entries/"+url.PathEscape(entryID), &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Lineage fetches upstream and downstream lineage edges for an entry.
func (c *Client) Lineage(ctx context.Context, token, entryID string) (LineageGraph, error) {
	if strings.TrimSpace(entryID) == "" {
		return LineageGraph{}, errors.New("entry id is required")
	}
	var graph LineageGraph
	if err := c.get(ctx, token, "catalog lineage", "/v1/entries/"+url.PathEscape(entryID)+"/lineage", &graph); err != nil {
		return LineageGraph{}, err
	}
	return graph, nil
}

// ProfileScan fetches the latest data-profile scan result for an entry.
func (c *Client) ProfileScan(ctx context.Context, token, entryID string) (ProfileScan, error) {
	if strings.TrimSpace(entryID) == "" {
		return ProfileScan{}, errors.New("entry id is required")
	}
	var scan ProfileScan
	if err := c.get(ctx, token, "catalog profile scan", "/v1/entries/"+url.PathEscape(entryID)+"/profile", &scan); err != nil {
		return ProfileScan{}, err
	}
	return scan, nil
}

// get performs an authenticated GET and decodes the JSON response into out.
// Failures are tagged with an apierr kind at this boundary; callers dispatch
// on the tag, never on the raw response.
func (c *Client) get(ctx context.Context, token, op, path string, out any) error {
	if c == nil || c.httpClient == nil {
		return errors.New("catalog client is not configured")
	}

	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("catalog.path", path),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := classifyStatus(op, resp)
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// upstreamError is the error envelope the catalog API returns on failures.
type upstreamError struct {
	Error struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// classifyStatus maps an upstream failure response to a tagged error.
//
// 401 with an expiry hint becomes KindAuthExpired, any other 401 and every
// 403 becomes KindAuthInvalid, the rest stay KindOther.
func classifyStatus(op string, resp *http.Response) *apierr.Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := ""
	var envelope upstreamError
	if err := json.Unmarshal(body, &envelope); err == nil {
		message = envelope.Error.Message
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	kind := apierr.KindOther
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if strings.Contains(strings.ToLower(message), "expired") {
			kind = apierr.KindAuthExpired
		} else {
			kind = apierr.KindAuthInvalid
		}
	case http.StatusForbidden:
		kind = apierr.KindAuthInvalid
	}

	return &apierr.Error{
		Kind:    kind,
		Status:  resp.StatusCode,
		Op:      op,
		Message: message,
	}
}
