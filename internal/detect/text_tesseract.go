//go:build tesseract

package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseractDetector recognizes text lines with a native Tesseract
// installation via gosseract.
type tesseractDetector struct {
	client *gosseract.Client
}

// newTextDetector probes the Tesseract installation. Shelf labels mix
// Portuguese words with plain digits, so both language packs load.
func newTextDetector() (TextDetector, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("por", "eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting ocr language: %w", err)
	}
	// Price tags are sparse text, not a uniform block.
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("setting page segmentation mode: %w", err)
	}
	return &tesseractDetector{client: client}, nil
}

// Detect runs OCR on a working-resolution frame and returns one Text
// per recognized line, with its bounding box.
func (t *tesseractDetector) Detect(_ context.Context, img image.Image) ([]Text, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("setting frame: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	texts := make([]Text, 0, len(boxes))
	for _, b := range boxes {
		value := strings.TrimSpace(b.Word)
		if value == "" {
			continue
		}
		texts = append(texts, Text{
			RawValue: value,
			Box: Box{
				X:      b.Box.Min.X,
				Y:      b.Box.Min.Y,
				Width:  b.Box.Dx(),
				Height: b.Box.Dy(),
			},
		})
	}
	return texts, nil
}

// Close releases the Tesseract client.
func (t *tesseractDetector) Close() error {
	return t.client.Close()
}
