package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/handwrite/pkg/ledger"
)

// assetsOpts holds the flags shared by the assets subcommands.
type assetsOpts struct {
	assets string
	ledger string
	mongo  string
}

// assetsCommand creates the asset maintenance command.
func (c *CLI) assetsCommand() *cobra.Command {
	var opts assetsOpts

	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Maintain the variant directory",
	}
	cmd.PersistentFlags().StringVar(&opts.assets, "assets", "", "variant directory (default from config)")
	cmd.PersistentFlags().StringVar(&opts.ledger, "ledger", "", "ledger file (default $XDG_DATA_HOME/handwrite/ledger.json)")
	cmd.PersistentFlags().StringVar(&opts.mongo, "mongo", "", "keep the ledger in MongoDB at this URI")

	cmd.AddCommand(c.assetsChangedCommand(&opts))
	cmd.AddCommand(c.assetsForgetCommand(&opts))

	return cmd
}

// assetsChangedCommand creates the "assets changed" subcommand.
func (c *CLI) assetsChangedCommand(opts *assetsOpts) *cobra.Command {
	var mark bool

	cmd := &cobra.Command{
		Use:   "changed",
		Short: "List variant files modified since they were last processed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			dir, store, closeStore, err := c.openLedger(ctx, opts)
			if err != nil {
				return err
			}
			defer closeStore()

			l, err := store.Load(ctx)
			if err != nil {
				return err
			}
			changed, err := ledger.Changed(os.DirFS(dir), l)
			if err != nil {
				return err
			}
			logger.Debugf("Ledger has %d entries", l.Len())

			if len(changed) == 0 {
				printSuccess("All variant files are up to date")
				return nil
			}
			printInfo("%d variant files changed", len(changed))
			for _, p := range changed {
				printFile(p)
			}
			if !mark {
				printNextStep("Mark them processed", appName+" assets changed --mark")
				return nil
			}

			now := time.Now()
			for _, p := range changed {
				l.Mark(p, now)
			}
			if err := store.Save(ctx, l); err != nil {
				return err
			}
			printSuccess("Marked %d files as processed", len(changed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&mark, "mark", false, "record the listed files as processed now")
	return cmd
}

// assetsForgetCommand creates the "assets forget" subcommand.
func (c *CLI) assetsForgetCommand(opts *assetsOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "forget PATH...",
		Short: "Drop ledger entries so the files count as changed again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, store, closeStore, err := c.openLedger(ctx, opts)
			if err != nil {
				return err
			}
			defer closeStore()

			l, err := store.Load(ctx)
			if err != nil {
				return err
			}
			for _, p := range args {
				l.Forget(filepath.ToSlash(p))
			}
			if err := store.Save(ctx, l); err != nil {
				return err
			}
			printSuccess("Forgot %d entries", len(args))
			return nil
		},
	}
}

// openLedger resolves the asset directory and the ledger store: MongoDB
// when a URI is given or configured, otherwise a JSON file.
func (c *CLI) openLedger(ctx context.Context, opts *assetsOpts) (string, ledger.Store, func(), error) {
	assets := opts.assets
	if assets == "" {
		assets = c.settings().Assets
	}
	if _, err := c.openAssets(assets); err != nil {
		return "", nil, nil, err
	}

	cfg := c.settings().Ledger
	uri := opts.mongo
	if uri == "" {
		uri = cfg.Mongo
	}
	if uri != "" {
		store, err := ledger.NewMongoStore(ctx, uri, cfg.Database, cfg.Collection)
		if err != nil {
			return "", nil, nil, err
		}
		return assets, store, func() { _ = store.Close(context.Background()) }, nil
	}

	path := opts.ledger
	if path == "" {
		path = cfg.Path
	}
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return "", nil, nil, err
		}
		path = filepath.Join(dir, "ledger.json")
	}
	return assets, ledger.NewFileStore(path), func() {}, nil
}
