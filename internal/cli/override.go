package cli

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/errors"
	pageio "github.com/matzehuels/handwrite/pkg/io"
	"github.com/matzehuels/handwrite/pkg/pipeline"
)

// overrideOpts holds the command-line flags for the override command.
type overrideOpts struct {
	assets     string
	output     string
	formats    string
	background string
	pngScale   float64
	glyph      int
	variant    string
	noCache    bool
}

// overrideCommand creates the override command.
func (c *CLI) overrideCommand() *cobra.Command {
	var opts overrideOpts

	cmd := &cobra.Command{
		Use:   "override PAGE.json",
		Short: "Swap the variant of glyphs on a rendered page",
		Long: `Override opens a page written with --format json and lets you choose a
different variant for individual glyphs. The page is redrawn without picking
again, so every other glyph stays as it was.

Without --glyph an interactive list is shown. With --glyph and --variant the
change is applied directly:

  handwrite override page.json --glyph 3 --variant 7.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOverride(cmd.Context(), args[0], cmd.Flags().Changed("glyph"), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.assets, "assets", "", "variant directory (default from config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default overwrites the page)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "svg,json", "output format(s): svg, pdf, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.background, "background", "", "paper image drawn under the glyphs")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", pipeline.DefaultPNGScale, "PNG zoom factor")
	cmd.Flags().IntVar(&opts.glyph, "glyph", 0, "index of the glyph to change")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "variant to use for --glyph (file name or full id)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the export cache")
	cmd.MarkFlagsRequiredTogether("glyph", "variant")

	return cmd
}

func (c *CLI) runOverride(ctx context.Context, path string, direct bool, opts *overrideOpts) error {
	logger := loggerFromContext(ctx)

	doc, err := pageio.ImportJSON(path)
	if err != nil {
		return err
	}
	prev, popts := pipeline.FromDocument(doc)
	logger.Debugf("Loaded page %s with %d glyphs", doc.PassID, len(prev.Glyphs))

	runner, err := c.newRunner(ctx, opts.assets, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var changes map[int]catalog.VariantID
	if direct {
		changes, err = directChange(runner, prev.Glyphs, opts.glyph, opts.variant)
	} else {
		changes, err = chooseChanges(ctx, runner, prev.Glyphs)
	}
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		printInfo("No glyphs changed")
		return nil
	}

	for _, i := range sortedChanges(changes) {
		if err := runner.Override(prev.Glyphs, i, changes[i]); err != nil {
			return err
		}
		logger.Debugf("Glyph %d now uses %s", i, changes[i])
	}

	popts.Formats = []string{opts.formats}
	popts.PNGScale = opts.pngScale
	popts.Logger = c.Logger
	if opts.background != "" {
		bg, err := readBackground(opts.background)
		if err != nil {
			return err
		}
		popts.Background = bg
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	res, err := runner.Redraw(ctx, prev, popts)
	if err != nil {
		return err
	}
	paths, err := writeArtifacts(res, popts.Formats, basePath(opts.output, path))
	if err != nil {
		return err
	}

	printSuccess("Replaced %d glyphs", len(changes))
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// directChange resolves a --glyph/--variant pair against the glyph's variants.
func directChange(lister variantLister, glyphs []pipeline.Glyph, index int, variant string) (map[int]catalog.VariantID, error) {
	if index < 0 || index >= len(glyphs) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "glyph index %d out of range [0, %d)", index, len(glyphs))
	}
	ch := glyphs[index].Char
	id, ok := resolveVariant(lister.AllVariants(ch), variant)
	if !ok {
		return nil, errors.New(errors.ErrCodeAssetNotFound, "%s is not a variant of %q", variant, ch)
	}
	return map[int]catalog.VariantID{index: id}, nil
}

// resolveVariant finds s among ids by full id or by file name.
func resolveVariant(ids []catalog.VariantID, s string) (catalog.VariantID, bool) {
	s = strings.TrimSpace(s)
	for _, id := range ids {
		if string(id) == s || id.Name() == s {
			return id, true
		}
	}
	return "", false
}

// chooseChanges runs the interactive override list.
func chooseChanges(ctx context.Context, lister variantLister, glyphs []pipeline.Glyph) (map[int]catalog.VariantID, error) {
	p := tea.NewProgram(NewOverrideModel(lister, glyphs), tea.WithContext(ctx), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(OverrideModel)
	if !m.Saved {
		return nil, nil
	}
	return m.Changes, nil
}
