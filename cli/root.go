// Package cli holds the ipms command tree: the HTTP service, draft
// maintenance and the interactive transfer wizard.
package cli

import (
	"context"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// load reads the config file and sets up logging.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return cfg, nil
}

// NewRootCommand builds the ipms command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ipms",
		Short: "IP management contract wizard",
		Long: `ipms serves the license and transfer contract wizards over HTTP and
offers terminal tools for the transfer drafts.

Available subcommands:
  serve    - Run the HTTP service
  drafts   - Show or clear stored transfer drafts
  transfer - Fill in a transfer contract interactively`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCommand(opts),
		newDraftsCommand(opts),
		newTransferCommand(opts),
	)
	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// locationURL is the shareable page URL of a wizard.
func locationURL(base, path string) *url.URL {
	u, err := url.Parse(strings.TrimRight(base, "/") + path)
	if err != nil {
		return &url.URL{Path: path}
	}
	return u
}
