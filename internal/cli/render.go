package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/handwrite/pkg/errors"
	"github.com/matzehuels/handwrite/pkg/export"
	"github.com/matzehuels/handwrite/pkg/observability"
	"github.com/matzehuels/handwrite/pkg/pipeline"
)

// defaultBase is the output base path when neither --output nor --file is given.
const defaultBase = "page"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	assets      string  // variant tree root
	file        string  // read text from this file ("-" for stdin)
	output      string  // output base path
	formats     string  // comma-separated output formats
	background  string  // background image path
	onExhausted string  // blank or reuse
	cellSize    float64 // grid cell size in pixels
	margin      float64 // page margin in pixels
	pngScale    float64 // PNG zoom factor
	columns     int     // visual columns
	maxRows     int     // rows per visual column
	maxColumns  int     // grid cells across the page
	seed        uint64  // 0 picks a random seed
	decorate    bool    // jitter glyphs
	noCache     bool    // bypass the export cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [text]",
		Short: "Render text as a handwritten page",
		Long: `Render lays the text out on a grid page and draws each character with a
hand-drawn variant. Text comes from the argument, --file, or stdin when the
argument is "-" or missing.

One file is written per format, named after --output (default "page"):

  handwrite render "hello world" -f svg,pdf -o notes/hello`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args, opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			popts, err := c.renderOptions(cmd, text, &opts)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), popts, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.assets, "assets", "", "variant directory (default from config)")
	cmd.Flags().StringVarP(&opts.file, "file", "i", "", "read text from file (- for stdin)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path; one file per format")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "svg", "output format(s): svg, pdf, png, json (comma-separated)")
	cmd.Flags().StringVar(&opts.background, "background", "", "paper image drawn under the glyphs; sizes the page")
	cmd.Flags().StringVar(&opts.onExhausted, "on-exhausted", "blank", "when every variant was used recently: blank or reuse")
	cmd.Flags().Float64Var(&opts.cellSize, "cell-size", pipeline.DefaultCellSize, "grid cell size in pixels")
	cmd.Flags().Float64Var(&opts.margin, "margin", 0, "page margin in pixels")
	cmd.Flags().Float64Var(&opts.pngScale, "png-scale", pipeline.DefaultPNGScale, "PNG zoom factor")
	cmd.Flags().IntVar(&opts.columns, "columns", 0, "visual columns the page is split into (1-4)")
	cmd.Flags().IntVar(&opts.maxRows, "max-rows", 0, "rows per visual column")
	cmd.Flags().IntVar(&opts.maxColumns, "max-columns", 0, "grid cells across the page, shared by the visual columns")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().BoolVar(&opts.decorate, "decorate", true, "jitter, tilt and scale glyphs slightly")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the export cache")

	return cmd
}

// readText returns the text to render. A trailing newline from a file or
// stdin is dropped so it does not start an empty line.
func readText(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		if file != "" {
			return "", errors.New(errors.ErrCodeInvalidInput, "give text as an argument or with --file, not both")
		}
		return args[0], nil
	}

	var data []byte
	var err error
	if file != "" && file != "-" {
		data, err = os.ReadFile(file)
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "text file %s", file)
		}
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read text")
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// renderOptions merges the config file and flags into pipeline options.
// Flags given on the command line win over config values.
func (c *CLI) renderOptions(cmd *cobra.Command, text string, opts *renderOpts) (pipeline.Options, error) {
	cfg := c.settings()
	flags := cmd.Flags()
	set := func(name string) bool { return flags.Changed(name) }

	popts := pipeline.Options{
		Text:        text,
		CellSize:    cfg.Layout.CellSize,
		ColumnLimit: cfg.Layout.Columns,
		MaxRows:     cfg.Layout.MaxRows,
		MaxColumns:  cfg.Layout.MaxColumns,
		Margin:      cfg.Layout.Margin,
		Seed:        cfg.Render.Seed,
		OnExhausted: cfg.Render.OnExhausted,
		Decorate:    opts.decorate,
		Formats:     cfg.Render.Formats,
		PNGScale:    cfg.Render.PNGScale,
		Logger:      c.Logger,
	}
	if cfg.Render.Decorate != nil && !set("decorate") {
		popts.Decorate = *cfg.Render.Decorate
	}
	if set("cell-size") || popts.CellSize == 0 {
		popts.CellSize = opts.cellSize
	}
	if set("columns") {
		popts.ColumnLimit = opts.columns
	}
	if set("max-rows") {
		popts.MaxRows = opts.maxRows
	}
	if set("max-columns") {
		popts.MaxColumns = opts.maxColumns
	}
	if set("margin") {
		popts.Margin = opts.margin
	}
	if set("seed") {
		popts.Seed = opts.seed
	}
	if set("on-exhausted") || popts.OnExhausted == "" {
		popts.OnExhausted = opts.onExhausted
	}
	if set("format") || len(popts.Formats) == 0 {
		popts.Formats = []string{opts.formats}
	}
	if set("png-scale") || popts.PNGScale == 0 {
		popts.PNGScale = opts.pngScale
	}

	background := cfg.Render.Background
	if set("background") {
		background = opts.background
	}
	if background != "" {
		data, err := readBackground(background)
		if err != nil {
			return popts, err
		}
		popts.Background = data
	}

	if err := popts.ValidateAndSetDefaults(); err != nil {
		return popts, err
	}
	return popts, nil
}

func readBackground(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "background image %s", path)
	}
	return data, nil
}

// runRender renders one page and writes an output file per format.
func (c *CLI) runRender(ctx context.Context, popts pipeline.Options, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.assets, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	input := defaultBase
	if opts.file != "" && opts.file != "-" {
		input = opts.file
	}
	base := basePath(opts.output, input)

	prog := newProgress(logger)
	spinner := newSpinner(ctx, os.Stderr, "Laying out text...")
	if c.Logger.GetLevel() > LogDebug {
		observability.SetPipelineHooks(spinnerHooks{spinner: spinner})
		defer observability.SetPipelineHooks(observability.NoopPipelineHooks{})
	}
	spinner.Start()
	res, err := runner.Render(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Rendered page")

	paths, err := writeArtifacts(res, popts.Formats, base)
	if err != nil {
		return err
	}

	printSuccess("Rendered %d glyphs", res.Stats.Placements)
	printStats(res.Stats, res.CacheInfo)
	if res.Page.Truncated {
		printWarning("Text did not fit on the page and was cut off")
	}
	printKeyValue("Seed", StyleHighlight.Render(strconv.FormatUint(res.Seed, 10)))
	for _, p := range paths {
		printFile(p)
	}
	if slices.Contains(popts.Formats, string(export.FormatJSON)) {
		printNextStep("Swap glyphs", appName+" override "+base+export.FormatJSON.Ext())
	}
	return nil
}

// writeArtifacts writes each format's artifact to base plus its extension.
func writeArtifacts(res *pipeline.Result, formats []string, base string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory")
		}
	}
	var paths []string
	for _, f := range formats {
		data, ok := res.Artifacts[f]
		if !ok {
			return paths, errors.New(errors.ErrCodeInternal, "no %s output produced", f)
		}
		path := base + export.Format(f).Ext()
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(export.Formats, export.Format(strings.TrimPrefix(ext, "."))) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
