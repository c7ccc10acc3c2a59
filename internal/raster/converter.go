// Package raster turns a stored edition PDF into images/page-<n>.jpg files.
package raster

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrToolMissing the configured rasterizer binary is not installed
	ErrToolMissing = errors.New("rasterizer binary not found")
	// ErrToolFailed the rasterizer exited non-zero or could not open the document
	ErrToolFailed = errors.New("rasterizer failed")
	// ErrNoOutput the rasterizer reported success but produced no page images
	ErrNoOutput = errors.New("rasterizer produced no pages")
	// ErrTimeout the rasterizer exceeded its time budget
	ErrTimeout = errors.New("rasterizer timed out")
)

// Options rendering density (DPI) and JPEG quality
type Options struct {
	Density int
	Quality int
}

// Result of a successful render
type Result struct {
	PageCount int
	// FirstPage is the absolute path of page-1.jpg
	FirstPage string
}

// Converter renders every page of pdfPath into outDir as page-1.jpg … page-N.jpg.
// On error the content of outDir is undefined; cleanup belongs to the caller.
type Converter interface {
	Render(ctx context.Context, pdfPath, outDir string, opts Options) (*Result, error)
}

// Engine names accepted by New
const (
	EngineGhostscript = "ghostscript"
	EngineImageMagick = "imagemagick"
	EngineFitz        = "fitz"
)

// New builds the converter for a configured engine
func New(engine, binary string, timeout time.Duration) (Converter, error) {
	switch engine {
	case "", EngineGhostscript:
		return NewCLIConverter(Ghostscript(binary), timeout), nil
	case EngineImageMagick:
		return NewCLIConverter(ImageMagick(binary), timeout), nil
	case EngineFitz:
		return NewFitzConverter(), nil
	}
	return nil, fmt.Errorf("unknown raster engine %q", engine)
}
