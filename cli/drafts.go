package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/handler"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/service"
	"github.com/hUstbit37/ipms-search-sub001/wizard"
)

type draftsOptions struct {
	tenant string
	user   string
}

func newDraftsCommand(root *rootOptions) *cobra.Command {
	opts := &draftsOptions{}
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Show or clear stored transfer drafts",
		Long: `Inspect the transfer drafts of one user in the configured draft store.

Available subcommands:
  show  - Print each step's stored draft
  clear - Delete all four step drafts`,
	}
	cmd.PersistentFlags().StringVar(&opts.tenant, "tenant", "local", "tenant the drafts belong to")
	cmd.PersistentFlags().StringVar(&opts.user, "user", defaultUser(), "user the drafts belong to")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print each step's stored draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDraftStore(cmd.Context(), root, func(cfg *config.Config, store service.DraftStore) error {
				local := wizard.NewLocalBacked(store, handler.DraftScope(cfg.Drafts.KeyPrefix, opts.tenant, opts.user))
				return showDrafts(cmd.Context(), cmd.OutOrStdout(), local)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all four step drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDraftStore(cmd.Context(), root, func(cfg *config.Config, store service.DraftStore) error {
				local := wizard.NewLocalBacked(store, handler.DraftScope(cfg.Drafts.KeyPrefix, opts.tenant, opts.user))
				if err := local.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("failed to clear drafts: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared transfer drafts of %s/%s\n", opts.tenant, opts.user)
				return nil
			})
		},
	})
	return cmd
}

// withDraftStore opens the configured store. The memory driver lives only as
// long as one process, so there is nothing to inspect from here.
func withDraftStore(ctx context.Context, root *rootOptions, fn func(*config.Config, service.DraftStore) error) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if cfg.Drafts.Driver == config.DriverMemory {
		return fmt.Errorf("drafts driver %q keeps nothing between runs; configure redis or sqlite", cfg.Drafts.Driver)
	}

	store, err := service.NewDraftStore(ctx, &cfg.Drafts)
	if err != nil {
		return err
	}
	defer closeStore(store)
	return fn(cfg, store)
}

func showDrafts(ctx context.Context, out io.Writer, local *wizard.LocalBacked) error {
	for _, step := range model.Steps() {
		raw, ok, err := local.Raw(ctx, step)
		if err != nil {
			return fmt.Errorf("failed to read %s draft: %w", step.Section(), err)
		}
		if !ok {
			fmt.Fprintf(out, "%d. %s: no draft\n", step, step.Title())
			continue
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, []byte(raw), "   ", "  "); err != nil {
			fmt.Fprintf(out, "%d. %s: unreadable draft (%v)\n", step, step.Title(), err)
			continue
		}
		fmt.Fprintf(out, "%d. %s (%s)\n   %s\n", step, step.Title(), wizard.DraftKey(step), pretty.String())
	}
	return nil
}
