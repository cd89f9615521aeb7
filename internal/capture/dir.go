// Package capture provides frame sources for the scanning pipeline.
package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tavini/pricecart/internal/scan"
)

var captureExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".heic": "image/heic",
	".heif": "image/heif",
	".pdf":  "application/pdf",
}

// DirSource serves captures from a watched directory: each new image
// file dropped into the directory becomes one preview frame and, if
// promoted, the still for that attempt. Files are consumed oldest
// first and never re-served.
type DirSource struct {
	dir string

	mu     sync.Mutex
	seen   map[string]struct{}
	staged image.Image
}

// NewDirSource watches dir for dropped image files.
func NewDirSource(dir string) *DirSource {
	return &DirSource{
		dir:  dir,
		seen: make(map[string]struct{}),
	}
}

// Ready reports whether the watched directory is accessible.
func (d *DirSource) Ready() bool {
	info, err := os.Stat(d.dir)
	return err == nil && info.IsDir()
}

// Frame stages the oldest unseen image in the directory and returns
// it as the preview frame. Files that fail to decode are skipped and
// marked consumed.
func (d *DirSource) Frame(_ context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	path, contentType, err := d.nextLocked()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capture %s: %w", path, err)
	}
	img, err := scan.DecodeCapture(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding capture %s: %w", path, err)
	}

	d.staged = img
	return img, nil
}

// CaptureStill returns the most recently staged frame at full
// resolution. The watched-directory source has no separate high
// resolution path, so the staged frame is the still.
func (d *DirSource) CaptureStill(_ context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.staged == nil {
		return nil, fmt.Errorf("no staged capture in %s", d.dir)
	}
	return d.staged, nil
}

// nextLocked finds the oldest unseen supported file and marks it
// consumed regardless of whether it decodes.
func (d *DirSource) nextLocked() (string, string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return "", "", fmt.Errorf("reading capture directory: %w", err)
	}

	type candidate struct {
		path        string
		contentType string
		modTime     int64
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		contentType, ok := captureExtensions[ext]
		if !ok {
			continue
		}
		path := filepath.Join(d.dir, entry.Name())
		if _, done := d.seen[path]; done {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path, contentType, info.ModTime().UnixNano()})
	}
	if len(candidates) == 0 {
		return "", "", os.ErrNotExist
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime < candidates[j].modTime
	})
	next := candidates[0]
	d.seen[next.path] = struct{}{}
	return next.path, next.contentType, nil
}
