package scan

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

const (
	defaultMaxWidth = 1024
	defaultQuality  = 80
)

// OptimizeOptions bounds the size of a capture before remote analysis.
type OptimizeOptions struct {
	MaxWidth int // resulting width is at most MaxWidth, aspect preserved
	Quality  int // JPEG quality, 1-100
}

// Optimize downscales a captured still so its width does not exceed
// MaxWidth and re-encodes it as JPEG at the given quality. This exists
// purely to cap upload size and latency; it has no other side effects.
func Optimize(img image.Image, opts OptimizeOptions) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to optimize")
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = defaultMaxWidth
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaultQuality
	}

	if img.Bounds().Dx() > opts.MaxWidth {
		img = imaging.Resize(img, opts.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encoding capture: %w", err)
	}
	return buf.Bytes(), nil
}
