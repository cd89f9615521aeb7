// Package detect wraps the on-device text and barcode detectors behind
// a capability-probed adapter. Detection runs repeatedly in a sampling
// loop, so every frame is first downscaled to a bounded working
// resolution and drawn into a scratch buffer reused across calls.
package detect

import (
	"context"
	"image"
	"log/slog"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Box is a detected region in working-resolution pixel coordinates.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Text is one recognized text region. Ordering across regions is not
// guaranteed; callers impose reading order themselves.
type Text struct {
	RawValue string `json:"rawValue"`
	Box      Box    `json:"boundingBox"`
}

// Barcode is one decoded barcode.
type Barcode struct {
	RawValue string `json:"rawValue"`
	Format   string `json:"format"`
}

// Capabilities reports which detection modalities are available at
// runtime. Probed once at startup and consumed as plain booleans.
type Capabilities struct {
	TextSupported    bool `json:"textSupported"`
	BarcodeSupported bool `json:"barcodeSupported"`
}

const defaultWorkingWidth = 640

// Adapter is the local detection adapter. The zero value is not
// usable; construct with NewAdapter and call Initialize once.
type Adapter struct {
	mu           sync.Mutex
	initialized  bool
	caps         Capabilities
	text         TextDetector
	workingWidth int
	scratch      *image.NRGBA // reused across frames to avoid allocation churn
}

// NewAdapter creates an adapter with the default working resolution.
func NewAdapter() *Adapter {
	return &Adapter{workingWidth: defaultWorkingWidth}
}

// SetWorkingWidth overrides the detection working width. Must be
// called before Initialize.
func (a *Adapter) SetWorkingWidth(w int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w > 0 && !a.initialized {
		a.workingWidth = w
	}
}

// Initialize probes platform capability. Idempotent: repeat calls
// return the cached result. Never fails; an unavailable detector
// degrades its modality to unsupported.
func (a *Adapter) Initialize() Capabilities {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.initialized {
		return a.caps
	}
	a.initialized = true

	td, err := newTextDetector()
	if err != nil {
		slog.Warn("text recognition unavailable", "error", err)
	} else {
		a.text = td
		a.caps.TextSupported = true
	}

	// The barcode decoder is pure Go and always linked.
	a.caps.BarcodeSupported = true

	return a.caps
}

// Capabilities returns the probed capability record.
func (a *Adapter) Capabilities() Capabilities {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.caps
}

// DetectFrame runs both detectors over a frame or still image and
// returns whatever they produce. An unsupported or failing modality
// yields an empty slice for that modality; the call itself never
// fails. Frames are serialized: the scratch buffer is shared.
func (a *Adapter) DetectFrame(ctx context.Context, frame image.Image) ([]Text, []Barcode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized || frame == nil {
		return nil, nil
	}

	working := a.downscaleLocked(frame)

	var texts []Text
	if a.text != nil {
		var err error
		texts, err = a.text.Detect(ctx, working)
		if err != nil {
			slog.Debug("text detection failed for frame", "error", err)
			texts = nil
		}
	}

	barcodes := decodeBarcodes(working)

	return texts, barcodes
}

// Close releases detector resources.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.text != nil {
		err := a.text.Close()
		a.text = nil
		return err
	}
	return nil
}

// downscaleLocked scales the frame down to the working width,
// preserving aspect ratio. Frames already within bounds pass through
// untouched. Detection quality is acceptable at low resolution and
// this bounds per-frame latency.
func (a *Adapter) downscaleLocked(frame image.Image) image.Image {
	b := frame.Bounds()
	if b.Dx() <= a.workingWidth || b.Dx() == 0 {
		return frame
	}

	w := a.workingWidth
	h := b.Dy() * w / b.Dx()
	if h < 1 {
		h = 1
	}

	if a.scratch == nil || a.scratch.Bounds().Dx() != w || a.scratch.Bounds().Dy() != h {
		a.scratch = image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	xdraw.ApproxBiLinear.Scale(a.scratch, a.scratch.Bounds(), frame, b, xdraw.Src, nil)
	return a.scratch
}
