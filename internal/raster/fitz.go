package raster

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"github.com/gen2brain/go-fitz"
	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
	"github.com/gituserindia/eptest-sub000/pkg/storage"
)

// FitzConverter renders in-process with MuPDF through go-fitz
type FitzConverter struct{}

// NewFitzConverter creates a FitzConverter
func NewFitzConverter() *FitzConverter {
	return &FitzConverter{}
}

// Render implements Converter
func (c *FitzConverter) Render(ctx context.Context, pdfPath, outDir string, opts Options) (*Result, error) {
	start := time.Now()

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrToolFailed, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, ErrNoOutput
	}

	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		default:
		}

		img, err := doc.ImageDPI(i, float64(opts.Density))
		if err != nil {
			return nil, fmt.Errorf("%w: render page %d: %v", ErrToolFailed, i+1, err)
		}

		out := filepath.Join(outDir, storage.PageImageName(i+1))
		f, err := os.Create(out)
		if err != nil {
			return nil, fmt.Errorf("create page %d: %w", i+1, err)
		}
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: opts.Quality})
		closeErr := f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: encode page %d: %v", ErrToolFailed, i+1, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("write page %d: %w", i+1, closeErr)
		}
	}

	pkglogger.FromContext(ctx).Info().
		Str("engine", EngineFitz).
		Int("pages", pageCount).
		Dur("duration", time.Since(start)).
		Msg("pdf rasterized")

	return &Result{
		PageCount: pageCount,
		FirstPage: filepath.Join(outDir, storage.PageImageName(1)),
	}, nil
}
