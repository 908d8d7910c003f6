package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hUstbit37/ipms-search-sub001/catalog"
	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/handler"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/service"
	"github.com/hUstbit37/ipms-search-sub001/wizard"
)

const (
	choiceNext      = "Next"
	choiceSaveDraft = "Save draft"
	choiceQuit      = "Quit"
)

var actionChoices = []string{choiceNext, choiceSaveDraft, choiceQuit}

var (
	ipTypes  = []string{string(model.IPTypeTrademark), string(model.IPTypeIndustrialDesign)}
	feeTypes = []string{model.FeeTypeNone, model.FeeTypeFixed, model.FeeTypeRoyalty}
)

// TransferSession walks the transfer wizard in a terminal. Drafts go to the
// configured draft store exactly as the HTTP service stores them.
type TransferSession struct {
	wizard     *wizard.Wizard
	prompts    PromptDriver
	searcher   catalog.Searcher
	catalogCfg config.CatalogConfig
	out        io.Writer
}

func NewTransferSession(w *wizard.Wizard, prompts PromptDriver, searcher catalog.Searcher, cfg config.CatalogConfig, out io.Writer) *TransferSession {
	return &TransferSession{wizard: w, prompts: prompts, searcher: searcher, catalogCfg: cfg, out: out}
}

// Run asks for every step starting at the current one. It returns the
// created contract, or nil when the user quit with drafts left.
func (s *TransferSession) Run(ctx context.Context) (*model.TransferContract, error) {
	for {
		step := s.wizard.Controller().Current()
		if !step.Valid() {
			return s.finish(ctx)
		}

		values, err := s.wizard.Hydrate(ctx, step)
		var perr *wizard.PersistenceError
		switch {
		case errors.As(err, &perr):
			// Ask with the form defaults.
			if err := s.prompts.Info(ctx, "[error] "+perr.Message); err != nil {
				return nil, err
			}
		case err != nil:
			return nil, err
		}
		if err := s.prompts.Info(ctx, fmt.Sprintf("\nStep %d of %d: %s", step, model.StepCount, step.Title())); err != nil {
			return nil, err
		}
		done, err := s.runStep(ctx, step, values)
		if err != nil || done {
			return nil, err
		}
	}
}

// runStep asks until the step is submitted. Invalid input is asked again
// with what the user typed. It reports true when the user quit.
func (s *TransferSession) runStep(ctx context.Context, step model.Step, values model.Draft) (bool, error) {
	for {
		if err := s.ask(ctx, values); err != nil {
			return false, err
		}

		choice, err := s.prompts.Select(ctx, SelectConfig{Message: step.Title() + ": what next?", Options: actionChoices})
		if err != nil {
			return false, err
		}
		var action wizard.Action
		switch actionChoices[choice] {
		case choiceQuit:
			return true, s.prompts.Info(ctx, "Drafts kept. Run the command again to resume.")
		case choiceSaveDraft:
			action = wizard.ActionSaveDraft
		default:
			action = wizard.ActionNext
		}

		res, err := s.wizard.Submit(ctx, step, action, values)
		var verr *wizard.ValidationError
		if errors.As(err, &verr) {
			if err := s.showErrors(ctx, verr); err != nil {
				return false, err
			}
			continue
		}
		if err != nil {
			return false, err
		}
		return false, s.notify(ctx, res.Notifications)
	}
}

func (s *TransferSession) finish(ctx context.Context) (*model.TransferContract, error) {
	ok, err := s.prompts.Confirm(ctx, ConfirmConfig{Message: "Create the transfer contract now?", Default: true})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.prompts.Info(ctx, "Drafts kept. Run the command again to resume.")
	}

	contract, notes, err := s.wizard.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.notify(ctx, notes); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(contract, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render contract: %w", err)
	}
	fmt.Fprintln(s.out, string(data))
	return contract, nil
}

func (s *TransferSession) notify(ctx context.Context, notes []wizard.Notification) error {
	for _, n := range notes {
		if err := s.prompts.Info(ctx, fmt.Sprintf("[%s] %s", n.Level, n.Message)); err != nil {
			return err
		}
	}
	return nil
}

func (s *TransferSession) showErrors(ctx context.Context, verr *wizard.ValidationError) error {
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if err := s.prompts.Info(ctx, fmt.Sprintf("  %s: %s", f, verr.Fields[f])); err != nil {
			return err
		}
	}
	return nil
}

// ask fills values in place, offering the stored draft as defaults.
func (s *TransferSession) ask(ctx context.Context, values model.Draft) error {
	switch v := values.(type) {
	case *model.GeneralInfo:
		return s.askGeneralInfo(ctx, v)
	case *model.Partners:
		return s.askPartners(ctx, v)
	case *model.Terms:
		return s.askTerms(ctx, v)
	case *model.Attachments:
		return s.askAttachments(ctx, v)
	default:
		return fmt.Errorf("no prompts for step %d", values.Step())
	}
}

func (s *TransferSession) askGeneralInfo(ctx context.Context, g *model.GeneralInfo) error {
	var err error
	fields := []struct {
		dst     *string
		message string
	}{
		{&g.Method, "Method"},
		{&g.Type, "Contract type"},
		{&g.DocNumber, "Document number"},
		{&g.Notes, "Notes"},
	}
	for _, f := range fields {
		if *f.dst, err = s.prompts.Input(ctx, InputConfig{Message: f.message, Default: *f.dst}); err != nil {
			return err
		}
	}
	if g.SignDate, err = s.askDate(ctx, "Sign date (YYYY-MM-DD)", g.SignDate); err != nil {
		return err
	}
	if g.EffectiveDate, err = s.askDate(ctx, "Effective date (YYYY-MM-DD)", g.EffectiveDate); err != nil {
		return err
	}
	g.ExpirationDate, err = s.askDate(ctx, "Expiration date (YYYY-MM-DD)", g.ExpirationDate)
	return err
}

func (s *TransferSession) askPartners(ctx context.Context, p *model.Partners) error {
	var err error
	fields := []struct {
		dst     *string
		message string
	}{
		{&p.LicensorName, "Transferor name"},
		{&p.LicensorAddress, "Transferor address"},
		{&p.LicenseeName, "Transferee name"},
		{&p.LicenseeAddress, "Transferee address"},
	}
	for _, f := range fields {
		if *f.dst, err = s.prompts.Input(ctx, InputConfig{Message: f.message, Default: *f.dst}); err != nil {
			return err
		}
	}

	idx, err := s.prompts.Select(ctx, SelectConfig{Message: "IP type", Options: ipTypes, Default: indexOf(ipTypes, string(p.IPType))})
	if err != nil {
		return err
	}
	ipType := model.IPType(ipTypes[idx])
	if ipType != p.IPType {
		// Assets of another catalog do not carry over.
		p.IPAssets = nil
	}
	p.IPType = ipType

	p.IPAssets, err = s.pickAssets(ctx, ipType, p.IPAssets)
	return err
}

// pickAssets runs the catalog dialog until the user enters a blank keyword.
func (s *TransferSession) pickAssets(ctx context.Context, ipType model.IPType, selected []model.IPItem) ([]model.IPItem, error) {
	if s.searcher == nil {
		return selected, nil
	}
	dialog := catalog.NewDialog(s.searcher, ipType,
		catalog.WithPageSize(s.catalogCfg.PageSize),
		catalog.WithDebounce(s.catalogCfg.Debounce()),
	)
	dialog.Open(selected)

	for {
		keyword, err := s.prompts.Input(ctx, InputConfig{
			Message: "Search " + strings.ReplaceAll(string(ipType), "_", " ") + " catalog (blank to finish)",
		})
		if err != nil {
			dialog.Dismiss()
			return selected, err
		}
		if strings.TrimSpace(keyword) == "" {
			return dialog.Confirm(), nil
		}

		items, err := dialog.SearchNow(ctx, keyword)
		if err != nil {
			if err := s.prompts.Info(ctx, service.UserMessage(err)); err != nil {
				return selected, err
			}
			continue
		}
		if len(items) == 0 {
			if err := s.prompts.Info(ctx, "No matches."); err != nil {
				return selected, err
			}
			continue
		}

		options := make([]string, len(items))
		var defaults []int
		for i, item := range items {
			options[i] = fmt.Sprintf("%s (%s) %s", item.Name, item.ApplicationNumber, item.StatusLabel)
			if dialog.IsSelected(item.ID) {
				defaults = append(defaults, i)
			}
		}
		picked, err := s.prompts.MultiSelect(ctx, SelectConfig{Message: "Select assets", Options: options, Defaults: defaults})
		if err != nil {
			dialog.Dismiss()
			return selected, err
		}

		want := make(map[int]bool, len(picked))
		for _, i := range picked {
			want[i] = true
		}
		for i, item := range items {
			if want[i] != dialog.IsSelected(item.ID) {
				dialog.Toggle(item)
			}
		}
	}
}

func (s *TransferSession) askTerms(ctx context.Context, t *model.Terms) error {
	var err error
	if t.GeographicalArea, err = s.prompts.Input(ctx, InputConfig{Message: "Geographical area", Default: t.GeographicalArea}); err != nil {
		return err
	}
	if t.ScopeOfRights, err = s.prompts.Input(ctx, InputConfig{Message: "Scope of rights", Default: t.ScopeOfRights}); err != nil {
		return err
	}
	idx, err := s.prompts.Select(ctx, SelectConfig{Message: "Fee type", Options: feeTypes, Default: indexOf(feeTypes, t.FeeType)})
	if err != nil {
		return err
	}
	t.FeeType = feeTypes[idx]
	if t.FeeType == model.FeeTypeNone {
		return nil
	}

	if t.FeeType == model.FeeTypeFixed {
		if t.FeeAmount, err = s.askAmount(ctx, t.FeeAmount); err != nil {
			return err
		}
	}
	fields := []struct {
		dst     *string
		message string
	}{
		{&t.Currency, "Currency"},
		{&t.PaymentPeriod, "Payment period"},
		{&t.PaymentMethod, "Payment method"},
	}
	for _, f := range fields {
		if *f.dst, err = s.prompts.Input(ctx, InputConfig{Message: f.message, Default: *f.dst}); err != nil {
			return err
		}
	}
	t.DueDate, err = s.askDate(ctx, "Due date (YYYY-MM-DD)", t.DueDate)
	return err
}

func (s *TransferSession) askAttachments(ctx context.Context, a *model.Attachments) error {
	for _, f := range a.Files {
		if err := s.prompts.Info(ctx, "  attached: "+f.Name); err != nil {
			return err
		}
	}
	var err error
	a.Notes, err = s.prompts.Input(ctx, InputConfig{Message: "Attachment notes", Default: a.Notes})
	return err
}

func (s *TransferSession) askDate(ctx context.Context, message string, current *model.Date) (*model.Date, error) {
	def := ""
	if current != nil && !current.IsZero() {
		def = current.Format("2006-01-02")
	}
	raw, err := s.prompts.Input(ctx, InputConfig{Message: message, Default: def, Validator: func(v string) error {
		_, err := parseDate(v)
		return err
	}})
	if err != nil {
		return nil, err
	}
	return parseDate(raw)
}

func (s *TransferSession) askAmount(ctx context.Context, current *float64) (*float64, error) {
	def := ""
	if current != nil {
		def = strconv.FormatFloat(*current, 'f', -1, 64)
	}
	raw, err := s.prompts.Input(ctx, InputConfig{Message: "Fee amount", Default: def, Validator: func(v string) error {
		_, err := parseAmount(v)
		return err
	}})
	if err != nil {
		return nil, err
	}
	return parseAmount(raw)
}

// parseDate reads an optional date. Blank input clears it.
func parseDate(raw string) (*model.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var d model.Date
	if err := json.Unmarshal([]byte(strconv.Quote(raw)), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func parseAmount(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return &v, nil
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return 0
}

type transferOptions struct {
	tenant string
	user   string
	step   int
}

func newTransferCommand(root *rootOptions) *cobra.Command {
	opts := &transferOptions{}
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Fill in a transfer contract interactively",
		Long: `Walk the four transfer wizard steps in the terminal.

Drafts are written to the configured draft store under the same keys the
HTTP service uses, so a draft started here can be finished in the browser
and the other way round.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), root, opts, newSurveyDriver(cmd.OutOrStdout()), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.tenant, "tenant", "local", "tenant the drafts belong to")
	cmd.Flags().StringVar(&opts.user, "user", defaultUser(), "user the drafts belong to")
	cmd.Flags().IntVar(&opts.step, "step", 1, "step to start at")
	return cmd
}

func runTransfer(ctx context.Context, root *rootOptions, opts *transferOptions, prompts PromptDriver, out io.Writer) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}

	store, err := service.NewDraftStore(ctx, &cfg.Drafts)
	if err != nil {
		return err
	}
	defer closeStore(store)

	ctx = logger.With(ctx, logger.TenantKey, opts.tenant)
	ctx = logger.With(ctx, logger.UsernameKey, opts.user)

	scope := handler.DraftScope(cfg.Drafts.KeyPrefix, opts.tenant, opts.user)
	w := newTransferWizard(store, scope, cfg.Server.PublicBaseURL, opts.step)

	var searcher catalog.Searcher
	if cfg.Backend.BaseURL != "" {
		searcher = service.NewBackendClient(&cfg.Backend)
	}

	_, err = NewTransferSession(w, prompts, searcher, cfg.Catalog, out).Run(ctx)
	return err
}

func newTransferWizard(store service.DraftStore, scope, baseURL string, step int) *wizard.Wizard {
	loc := locationURL(baseURL, "/transfers/new")
	nav := wizard.NewURLNavigator(loc)
	controller := wizard.NewController("", nav)
	controller.Sync("step=" + strconv.Itoa(step))
	return wizard.New("transfer", controller, wizard.NewLocalBacked(store, scope))
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func closeStore(store service.DraftStore) {
	if c, ok := store.(io.Closer); ok {
		c.Close()
	}
}
