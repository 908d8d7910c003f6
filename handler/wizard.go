package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hUstbit37/ipms-search-sub001/middleware"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/service"
	"github.com/hUstbit37/ipms-search-sub001/wizard"
)

// StepRequest is the body of a step submission.
type StepRequest struct {
	Action string          `json:"action" binding:"required"`
	Values json.RawMessage `json:"values"`
}

// wizardBuilder builds a fresh wizard whose location starts at rawQuery.
type wizardBuilder func(c *gin.Context, rawQuery string) *wizard.Wizard

// DraftScope is the key prefix that keeps one user's transfer drafts apart
// from everyone else's.
func DraftScope(prefix, tenant, username string) string {
	return prefix + tenant + ":" + username + ":"
}

// newLocation parses base+path as the shareable wizard location.
func newLocation(base, path, rawQuery string) *url.URL {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		u = &url.URL{Path: path}
	}
	u.RawQuery = rawQuery
	return u
}

func newWizard(name, entityID string, loc *url.URL, strategy wizard.Strategy) *wizard.Wizard {
	nav := wizard.NewURLNavigator(loc)
	controller := wizard.NewController(entityID, nav)
	step := controller.Sync(loc.RawQuery)
	// Out of range steps resolve to step 1; the location follows.
	_ = nav.ReplaceStep(step)
	return wizard.New(name, controller, strategy)
}

// parsePathStep accepts only steps that have a form.
func parsePathStep(raw string) (model.Step, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || !model.Step(n).Valid() {
		return 0, fmt.Errorf("invalid step %q", raw)
	}
	return model.Step(n), nil
}

func decodeValues(step model.Step, raw json.RawMessage) (model.Draft, error) {
	d, err := model.NewDraft(step)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("invalid values for step %d: %w", step, err)
	}
	return d, nil
}

func submitKey(c *gin.Context, subject string) string {
	return middleware.GetTenant(c) + "/" + middleware.GetUsername(c) + "/" + subject
}

func notificationsOrEmpty(n []wizard.Notification) []wizard.Notification {
	if n == nil {
		return []wizard.Notification{}
	}
	return n
}

// viewResponse renders the page state of the current step.
func viewResponse(ctx context.Context, w *wizard.Wizard) (gin.H, error) {
	controller := w.Controller()
	view := controller.Active()
	resp := gin.H{
		"step":     view.Step,
		"location": controller.Location(),
		"view":     view,
		"steps":    stepTitles(),
	}
	if view.ComingSoon {
		return resp, nil
	}
	values, err := w.Hydrate(ctx, view.Step)
	var perr *wizard.PersistenceError
	switch {
	case errors.As(err, &perr) && w.Strategy().Kind() == wizard.KindLocal:
		// The form still renders with its defaults.
		resp["notifications"] = []wizard.Notification{{Level: wizard.LevelError, Message: perr.Message}}
	case err != nil:
		return nil, err
	}
	resp["values"] = values
	return resp, nil
}

func stepTitles() []gin.H {
	steps := model.Steps()
	out := make([]gin.H, len(steps))
	for i, s := range steps {
		out[i] = gin.H{"step": s, "title": s.Title()}
	}
	return out
}

// submitStep runs one save-draft or next action under the caller's gate key.
func submitStep(c *gin.Context, gate *wizard.Gate, subject string, build wizardBuilder) {
	step, err := parsePathStep(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	action, err := wizard.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	values, err := decodeValues(step, req.Values)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	release, ok := gate.Acquire(submitKey(c, subject))
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "A submission is already in progress"})
		return
	}
	defer release()

	w := build(c, "step="+strconv.Itoa(int(step)))
	res, err := w.Submit(c.Request.Context(), step, action, values)
	if err != nil {
		writeWizardError(c, step, res, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"step":          res.Step,
		"advanced":      res.Advanced,
		"location":      w.Controller().Location(),
		"view":          w.Controller().Active(),
		"notifications": notificationsOrEmpty(res.Notifications),
	})
}

// persistenceStatus passes backend client errors through and reports
// everything else as a bad gateway.
func persistenceStatus(err error) int {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}

// writeWizardError maps wizard errors to HTTP responses. The step in the
// response is the one the user stays on.
func writeWizardError(c *gin.Context, step model.Step, res *wizard.Result, err error) {
	var (
		verr *wizard.ValidationError
		perr *wizard.PersistenceError
	)
	var notes []wizard.Notification
	if res != nil {
		step = res.Step
		notes = res.Notifications
	}

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         "Validation failed",
			"step":          step,
			"errors":        verr.Fields,
			"notifications": notificationsOrEmpty(notes),
		})
	case errors.Is(err, wizard.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "A submission is already in progress", "step": step})
	case errors.As(err, &perr):
		if len(notes) == 0 {
			notes = []wizard.Notification{{Level: wizard.LevelError, Message: perr.Message}}
		}
		c.JSON(persistenceStatus(err), gin.H{
			"error":         perr.Message,
			"step":          step,
			"notifications": notes,
		})
	default:
		logger.Error(c.Request.Context(), "wizard request failed", "step", int(step), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "step": step})
	}
}
