package detect

import (
	"context"
	"image"
)

// TextDetector recognizes text regions in a frame.
type TextDetector interface {
	// Detect returns the text regions found in img.
	Detect(ctx context.Context, img image.Image) ([]Text, error)
	// Close releases recognizer resources.
	Close() error
}
