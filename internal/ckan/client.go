// Package ckan is a small client for the CKAN Action API used by the Bogotá
// open data portal.
package ckan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"rainroute.motoclima.co/internal/config"
	"rainroute.motoclima.co/internal/metrics"
)

// Record is one datastore row. Column names and types vary per resource.
type Record map[string]any

// APIError is returned when CKAN answers with success=false or a non-JSON
// error page.
type APIError struct {
	Action     string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("ckan %s: %s: %s (status %d)", e.Action, e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("ckan %s: %s (status %d)", e.Action, e.Message, e.StatusCode)
}

// SentryTags groups reported portal failures by action and status.
func (e *APIError) SentryTags() map[string]string {
	tags := map[string]string{
		"ckan_action": e.Action,
		"ckan_status": strconv.Itoa(e.StatusCode),
	}
	if e.Type != "" {
		tags["ckan_error_type"] = e.Type
	}
	return tags
}

type envelope struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"__type"`
	} `json:"error"`
}

type Organization struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type Resource struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Format          string `json:"format"`
	URL             string `json:"url"`
	DatastoreActive bool   `json:"datastore_active"`
}

type Dataset struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Title            string        `json:"title"`
	Notes            string        `json:"notes"`
	MetadataModified string        `json:"metadata_modified"`
	Organization     *Organization `json:"organization"`
	Resources        []Resource    `json:"resources"`
}

// SearchResult is the result of package_search.
type SearchResult struct {
	Count   int       `json:"count"`
	Results []Dataset `json:"results"`
}

type Field struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// DatastoreResult is the result of datastore_search and datastore_search_sql.
type DatastoreResult struct {
	ResourceID string   `json:"resource_id,omitempty"`
	Fields     []Field  `json:"fields"`
	Records    []Record `json:"records"`
	Total      int      `json:"total"`
}

// Columns returns the field names in datastore order.
func (r DatastoreResult) Columns() []string {
	cols := make([]string, 0, len(r.Fields))
	for _, f := range r.Fields {
		cols = append(cols, f.ID)
	}
	return cols
}

// DatastoreQuery selects rows from a datastore resource.
type DatastoreQuery struct {
	ResourceID string
	Limit      int
	Offset     int
	Filters    map[string]any
	Fields     []string
	Q          string
}

func (q DatastoreQuery) values() (url.Values, error) {
	if q.ResourceID == "" {
		return nil, fmt.Errorf("datastore query requires a resource id")
	}
	v := url.Values{}
	v.Set("resource_id", q.ResourceID)
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(q.Filters) > 0 {
		filters, err := json.Marshal(q.Filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		v.Set("filters", string(filters))
	}
	if len(q.Fields) > 0 {
		v.Set("fields", strings.Join(q.Fields, ","))
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	return v, nil
}

// Client calls CKAN actions over HTTP GET.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxRetries int
}

// NewClient returns a client for the action API rooted at baseURL, for
// example https://datosabiertos.bogota.gov.co/api/3/action.
func NewClient(baseURL string, httpClient *http.Client, userAgent string, maxRetries int) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		userAgent:  userAgent,
		maxRetries: maxRetries,
	}
}

// BaseURL returns the action API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PackageList returns the names of every public dataset.
func (c *Client) PackageList(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.call(ctx, "package_list", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// PackageSearch runs a full-text dataset search. rows <= 0 uses the portal
// default.
func (c *Client) PackageSearch(ctx context.Context, query string, rows int) (SearchResult, error) {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if rows > 0 {
		v.Set("rows", strconv.Itoa(rows))
	}
	var result SearchResult
	if err := c.call(ctx, "package_search", v, &result); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

// PackageShow returns the metadata of one dataset by id or name.
func (c *Client) PackageShow(ctx context.Context, id string) (Dataset, error) {
	v := url.Values{}
	v.Set("id", id)
	var ds Dataset
	if err := c.call(ctx, "package_show", v, &ds); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// DatastoreSearch reads rows from a datastore resource.
func (c *Client) DatastoreSearch(ctx context.Context, q DatastoreQuery) (DatastoreResult, error) {
	v, err := q.values()
	if err != nil {
		return DatastoreResult{}, err
	}
	var result DatastoreResult
	if err := c.call(ctx, "datastore_search", v, &result); err != nil {
		return DatastoreResult{}, err
	}
	if result.ResourceID == "" {
		result.ResourceID = q.ResourceID
	}
	return result, nil
}

// DatastoreSearchSQL runs a read-only SQL query against the datastore.
func (c *Client) DatastoreSearchSQL(ctx context.Context, sql string) (DatastoreResult, error) {
	v := url.Values{}
	v.Set("sql", sql)
	var result DatastoreResult
	if err := c.call(ctx, "datastore_search_sql", v, &result); err != nil {
		return DatastoreResult{}, err
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, action string, params url.Values, out any) (err error) {
	defer func() {
		metrics.SetApiStatus(action, err == nil)
	}()

	endpoint := c.baseURL + "/" + action
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", action, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := config.DoWithBackoff(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return fmt.Errorf("ckan %s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", action, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return &APIError{Action: action, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}

	if !env.Success {
		apiErr := &APIError{Action: action, StatusCode: resp.StatusCode, Message: "request was not successful"}
		if env.Error != nil {
			apiErr.Message = env.Error.Message
			apiErr.Type = env.Error.Type
		}
		return apiErr
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", action, err)
	}
	return nil
}
