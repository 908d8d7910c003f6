// Package catalog searches the IP catalogs and keeps the multi-selection used
// by the partners step.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
)

// Query is one page of a catalog search.
type Query struct {
	Type     model.IPType
	Keyword  string
	Page     int
	PageSize int
}

// Page is the raw result of a catalog search.
type Page struct {
	Items    []model.RawIPItem
	Total    int
	Page     int
	PageSize int
}

// Searcher runs a catalog query against the backend.
type Searcher interface {
	SearchCatalog(ctx context.Context, q Query) (*Page, error)
}

// Results is a normalised page of catalog items.
type Results struct {
	Items    []model.IPItem `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Search runs q and normalises the rows. A blank keyword returns an empty
// page without querying.
func Search(ctx context.Context, s Searcher, q Query) (*Results, error) {
	q.Keyword = strings.TrimSpace(q.Keyword)
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Keyword == "" {
		return &Results{Items: []model.IPItem{}, Page: q.Page, PageSize: q.PageSize}, nil
	}

	page, err := s.SearchCatalog(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s catalog: %w", q.Type, err)
	}

	out := &Results{
		Items:    make([]model.IPItem, 0, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for _, raw := range page.Items {
		item, err := Normalize(raw)
		if err != nil {
			logger.Warn(ctx, "skipping catalog item", "type", raw.Type, "error", err)
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
