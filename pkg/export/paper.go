package export

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/handwrite/pkg/errors"
)

// PaperSize returns the pixel size and format name of a background image.
// PNG, JPEG, GIF, BMP, TIFF and WebP are recognized.
func PaperSize(background []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(background))
	if err != nil {
		return 0, 0, "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "read background image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, "", errors.New(errors.ErrCodeInvalidFormat, "background image is empty")
	}
	return cfg.Width, cfg.Height, format, nil
}
