package service

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

	"github.com/hUstbit37/ipms-search-sub001/catalog"
	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/pkg/metrics"
)

// BackendClient calls the IPMS backend API for contract entities and the IP
// catalogs.
type BackendClient struct {
	config     *config.BackendConfig
	httpClient *http.Client
}

func NewBackendClient(cfg *config.BackendConfig) *BackendClient {
	return &BackendClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

func (c *BackendClient) entityPath(id string) string {
	return strings.TrimRight(c.config.LicensePath, "/") + "/" + url.PathEscape(id)
}

// GetEntity fetches the full entity.
func (c *BackendClient) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	var entity model.Entity
	if err := c.do(ctx, http.MethodGet, c.entityPath(id), nil, &entity); err != nil {
		return nil, err
	}
	if entity.ID == "" {
		entity.ID = id
	}
	return &entity, nil
}

// UpdateStep sends one step's fields. The body must already carry the "step"
// discriminator. Backends that answer 204 yield a nil entity.
func (c *BackendClient) UpdateStep(ctx context.Context, id string, step model.Step, fields map[string]any) (*model.Entity, error) {
	if _, ok := fields["step"]; !ok {
		fields["step"] = int(step)
	}

	var entity *model.Entity
	if err := c.do(ctx, http.MethodPut, c.entityPath(id), fields, &entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (c *BackendClient) DeleteEntity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.entityPath(id), nil, nil)
}

type catalogResponse struct {
	Items    []json.RawMessage `json:"items"`
	Results  []json.RawMessage `json:"results"`
	Total    int               `json:"total"`
	Count    int               `json:"count"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// SearchCatalog runs a keyword search on one IP catalog. Rows are tagged with
// the requested type; their shape is never inspected to guess it.
func (c *BackendClient) SearchCatalog(ctx context.Context, q catalog.Query) (*catalog.Page, error) {
	params := url.Values{}
	params.Set("search", q.Keyword)
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	path := strings.TrimRight(c.config.CatalogPath, "/") + "/" + url.PathEscape(string(q.Type)) + "?" + params.Encode()

	var resp catalogResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	rows := resp.Items
	if rows == nil {
		rows = resp.Results
	}
	total := resp.Total
	if total == 0 {
		total = resp.Count
	}

	page := &catalog.Page{
		Items:    make([]model.RawIPItem, 0, len(rows)),
		Total:    total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
	}
	if page.Page == 0 {
		page.Page = q.Page
	}
	if page.PageSize == 0 {
		page.PageSize = q.PageSize
	}
	for _, row := range rows {
		item, err := model.DecodeRawIPItem(q.Type, row)
		if err != nil {
			logger.Warn(ctx, "skipping malformed catalog row", "type", q.Type, "error", err)
			continue
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.BaseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	token := TokenFrom(ctx)
	if token == "" {
		token = c.config.APIToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok && reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues(method, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestDuration.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn(ctx, "backend request failed", "method", method, "path", path, "status", resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
