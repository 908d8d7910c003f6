package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hUstbit37/ipms-search-sub001/catalog"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

const maxCatalogPageSize = 100

// CatalogHandler searches the IP catalogs for the partners step dialog.
type CatalogHandler struct {
	searcher catalog.Searcher
	pageSize int
}

func NewCatalogHandler(searcher catalog.Searcher, pageSize int) *CatalogHandler {
	return &CatalogHandler{searcher: searcher, pageSize: pageSize}
}

// Search returns one normalised page of a catalog
func (h *CatalogHandler) Search(c *gin.Context) {
	ipType, err := model.ParseIPType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := queryInt(c, "page", 1)
	if err != nil || page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive number"})
		return
	}
	pageSize, err := queryInt(c, "page_size", h.pageSize)
	if err != nil || pageSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_size must be a positive number"})
		return
	}
	if pageSize > maxCatalogPageSize {
		pageSize = maxCatalogPageSize
	}

	results, err := catalog.Search(c.Request.Context(), h.searcher, catalog.Query{
		Type:     ipType,
		Keyword:  c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "catalog search failed", "type", ipType, "error", err)
		c.JSON(persistenceStatus(err), gin.H{"error": service.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, results)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
