package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hUstbit37/ipms-search-sub001/middleware"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/service"
	"github.com/hUstbit37/ipms-search-sub001/wizard"
)

// TransferHandler serves the transfer wizard. Nothing exists in the backend
// until the final create, so drafts live in the draft store under the
// caller's scope.
type TransferHandler struct {
	store     service.DraftStore
	keyPrefix string
	gate      *wizard.Gate
	baseURL   string
}

func NewTransferHandler(store service.DraftStore, keyPrefix string, gate *wizard.Gate, baseURL string) *TransferHandler {
	return &TransferHandler{store: store, keyPrefix: keyPrefix, gate: gate, baseURL: baseURL}
}

func (h *TransferHandler) strategy(c *gin.Context) *wizard.LocalBacked {
	scope := DraftScope(h.keyPrefix, middleware.GetTenant(c), middleware.GetUsername(c))
	return wizard.NewLocalBacked(h.store, scope)
}

func (h *TransferHandler) build(c *gin.Context, rawQuery string) *wizard.Wizard {
	loc := newLocation(h.baseURL, "/transfers/new", rawQuery)
	return newWizard("transfer", "", loc, h.strategy(c))
}

// View returns the active step with the stored draft, and which steps have
// a draft at all
func (h *TransferHandler) View(c *gin.Context) {
	ctx := c.Request.Context()
	w := h.build(c, c.Request.URL.RawQuery)

	resp, err := viewResponse(ctx, w)
	if err != nil {
		writeWizardError(c, w.Controller().Current(), nil, err)
		return
	}

	notes, _ := resp["notifications"].([]wizard.Notification)
	local := w.Strategy().(*wizard.LocalBacked)
	saved := make([]model.Step, 0, model.StepCount)
	for _, step := range model.Steps() {
		_, ok, err := local.Raw(ctx, step)
		var perr *wizard.PersistenceError
		if errors.As(err, &perr) && len(notes) == 0 {
			notes = append(notes, wizard.Notification{Level: wizard.LevelError, Message: perr.Message})
		}
		if ok {
			saved = append(saved, step)
		}
	}
	resp["saved_steps"] = saved
	resp["notifications"] = notificationsOrEmpty(notes)
	c.JSON(http.StatusOK, resp)
}

// SubmitStep saves a step draft or saves and advances
func (h *TransferHandler) SubmitStep(c *gin.Context) {
	submitStep(c, h.gate, "transfer", h.build)
}

// Create assembles the saved drafts into a transfer contract
func (h *TransferHandler) Create(c *gin.Context) {
	release, ok := h.gate.Acquire(submitKey(c, "transfer"))
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "A submission is already in progress"})
		return
	}
	defer release()

	w := h.build(c, c.Request.URL.RawQuery)
	contract, notes, err := w.Create(c.Request.Context())
	if errors.Is(err, wizard.ErrIncompleteDraft) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		writeWizardError(c, w.Controller().Current(), nil, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"contract":      contract,
		"notifications": notificationsOrEmpty(notes),
	})
}

// Discard drops every stored transfer draft of the caller
func (h *TransferHandler) Discard(c *gin.Context) {
	if err := h.strategy(c).Clear(c.Request.Context()); err != nil {
		writeWizardError(c, 0, nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Drafts discarded"})
}
