// Package export turns a rendered SVG page into a document file.
//
// PDF and PNG conversion shells out to rsvg-convert from librsvg:
//
//	brew install librsvg        # macOS
//	apt install librsvg2-bin    # Debian/Ubuntu
//
// [PaperSize] reads the pixel size of a background image so the page can be
// sized to it.
package export

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"github.com/matzehuels/handwrite/pkg/errors"
)

// Format is an output document format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF, FormatJSON}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ParseFormats parses a comma-separated format list such as "svg,pdf".
// Duplicates are dropped; order is kept.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for part := range strings.SplitSeq(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		if !slices.Contains(Formats, f) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want svg, png, pdf or json)", f)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "no output format given")
	}
	return out, nil
}

// Converter turns SVG into another document format.
type Converter interface {
	Convert(ctx context.Context, svg []byte, f Format) ([]byte, error)
}

// ConverterFunc adapts a function to [Converter].
type ConverterFunc func(ctx context.Context, svg []byte, f Format) ([]byte, error)

func (fn ConverterFunc) Convert(ctx context.Context, svg []byte, f Format) ([]byte, error) {
	return fn(ctx, svg, f)
}

// Rsvg converts with the rsvg-convert binary.
type Rsvg struct {
	Scale float64 // PNG zoom factor; 0 means 2
}

// Convert implements [Converter]. SVG input is returned unchanged.
func (r Rsvg) Convert(ctx context.Context, svg []byte, f Format) ([]byte, error) {
	switch f {
	case FormatSVG:
		return svg, nil
	case FormatPDF:
		return ToPDF(ctx, svg)
	case FormatPNG:
		scale := r.Scale
		if scale <= 0 {
			scale = 2
		}
		return ToPNG(ctx, svg, scale)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "cannot convert SVG to %s", f)
	}
}

// ToPDF converts SVG bytes to PDF. The paper size is the SVG page size.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// Available reports whether rsvg-convert is installed.
func Available() bool {
	_, err := exec.LookPath("rsvg-convert")
	return err == nil
}

func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if !Available() {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "rsvg-convert")
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rsvg-convert: %s", strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}
