//go:build !tesseract

package detect

import "errors"

var errNoTextBackend = errors.New("detect: no text recognizer linked; build with -tags=tesseract")

// newTextDetector reports text recognition as unavailable in the
// default build.
func newTextDetector() (TextDetector, error) {
	return nil, errNoTextBackend
}
