package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/service"
	"github.com/hUstbit37/ipms-search-sub001/wizard"
)

// LicenseHandler serves the wizard of a license contract that already
// exists in the backend. Every step is written straight to the entity.
type LicenseHandler struct {
	api     wizard.EntityAPI
	cache   *service.EntityCache
	gate    *wizard.Gate
	baseURL string
}

func NewLicenseHandler(api wizard.EntityAPI, cache *service.EntityCache, gate *wizard.Gate, baseURL string) *LicenseHandler {
	return &LicenseHandler{api: api, cache: cache, gate: gate, baseURL: baseURL}
}

func (h *LicenseHandler) strategy(c *gin.Context) *wizard.ServerBacked {
	return wizard.NewServerBacked(h.api, h.cache, c.Param("id"))
}

func (h *LicenseHandler) build(c *gin.Context, rawQuery string) *wizard.Wizard {
	id := c.Param("id")
	loc := newLocation(h.baseURL, "/licenses/"+url.PathEscape(id)+"/edit", rawQuery)
	return newWizard("license", id, loc, h.strategy(c))
}

// View returns the active step of the license wizard with its form values
func (h *LicenseHandler) View(c *gin.Context) {
	ctx := logger.With(c.Request.Context(), logger.EntityIDKey, c.Param("id"))
	w := h.build(c, c.Request.URL.RawQuery)

	strategy := w.Strategy().(*wizard.ServerBacked)
	if _, err := strategy.LoadEntity(ctx); err != nil {
		writeWizardError(c, w.Controller().Current(), nil, err)
		return
	}

	resp, err := viewResponse(ctx, w)
	if err != nil {
		writeWizardError(c, w.Controller().Current(), nil, err)
		return
	}
	resp["entity_id"] = c.Param("id")
	c.JSON(http.StatusOK, resp)
}

// SubmitStep saves a step draft or saves and advances
func (h *LicenseHandler) SubmitStep(c *gin.Context) {
	submitStep(c, h.gate, "license/"+c.Param("id"), h.build)
}

// Refresh refetches the license. The first step's values come back only
// while it is the active step.
func (h *LicenseHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	w := h.build(c, c.Request.URL.RawQuery)

	repopulated, err := w.Refresh(ctx)
	if err != nil {
		writeWizardError(c, w.Controller().Current(), nil, err)
		return
	}

	resp := gin.H{
		"step":        w.Controller().Current(),
		"location":    w.Controller().Location(),
		"repopulated": repopulated,
	}
	if repopulated {
		resp["values"] = w.Form(model.StepGeneralInfo).Values()
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes the license from the backend
func (h *LicenseHandler) Delete(c *gin.Context) {
	ctx := logger.With(c.Request.Context(), logger.EntityIDKey, c.Param("id"))
	if err := h.strategy(c).Delete(ctx); err != nil {
		writeWizardError(c, 0, nil, err)
		return
	}

	logger.Info(ctx, "license deleted")
	c.JSON(http.StatusOK, gin.H{"message": "License deleted"})
}
