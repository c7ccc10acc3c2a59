// Package thumbnail derives the share (OG) and listing images from a rendered first page.
package thumbnail

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
	"github.com/gituserindia/eptest-sub000/pkg/storage"
)

// Spec fixed pixel policy for both outputs
type Spec struct {
	OGWidth    int
	OGHeight   int
	ListHeight int
	Quality    int
}

// Result paths are absolute and empty for an output that failed
type Result struct {
	OGPath   string
	ListPath string
	OGErr    error
	ListErr  error
}

// Generator produces og-thumb.jpg and list-thumb.jpg in outDir.
// Failures are reported per output and never abort the other one.
type Generator interface {
	Generate(srcPath, outDir string, spec Spec) Result
}

// ImageGenerator scales with Catmull-Rom resampling
type ImageGenerator struct{}

// NewImageGenerator creates an ImageGenerator
func NewImageGenerator() *ImageGenerator {
	return &ImageGenerator{}
}

// Generate implements Generator
func (g *ImageGenerator) Generate(srcPath, outDir string, spec Spec) Result {
	src, err := decode(srcPath)
	if err != nil {
		err = fmt.Errorf("decode first page: %w", err)
		return Result{OGErr: err, ListErr: err}
	}

	var res Result

	ogPath := filepath.Join(outDir, storage.OGThumbName)
	if err := writeJPEG(ogPath, TopCrop(src, spec.OGWidth, spec.OGHeight), spec.Quality); err != nil {
		res.OGErr = fmt.Errorf("og thumbnail: %w", err)
	} else {
		res.OGPath = ogPath
	}

	listPath := filepath.Join(outDir, storage.ListThumbName)
	if err := writeJPEG(listPath, FitHeight(src, spec.ListHeight), spec.Quality); err != nil {
		res.ListErr = fmt.Errorf("list thumbnail: %w", err)
	} else {
		res.ListPath = listPath
	}

	return res
}

// TopCrop scales src to width w and keeps the top h rows.
// Only the source band that lands inside the crop is resampled.
// A source shorter than h after scaling yields a shorter image.
func TopCrop(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	scaledH := b.Dy() * w / b.Dx()
	if scaledH < 1 {
		scaledH = 1
	}
	srcRect := b
	if scaledH > h {
		// top band of the source covering h output rows
		band := (h*b.Dx() + w - 1) / w
		if band > b.Dy() {
			band = b.Dy()
		}
		srcRect = image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+band)
		scaledH = h
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, scaledH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, srcRect, draw.Src, nil)
	return dst
}

// FitHeight scales src to height h with proportional width, no cropping
func FitHeight(src image.Image, h int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	w := b.Dx() * h / b.Dy()
	if w < 1 {
		w = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func decode(p string) (image.Image, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// writeJPEG writes through a temp file so a failed encode never leaves a partial thumbnail
func writeJPEG(p string, img image.Image, quality int) error {
	if img.Bounds().Empty() {
		return errors.New("empty image")
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".thumb-*.jpg")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	err = jpeg.Encode(tmp, img, &jpeg.Options{Quality: quality})
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o644)
	}
	if err == nil {
		err = os.Rename(tmpName, p)
	}
	if err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			pkglogger.GetLogger().Warn().Err(rmErr).Str("file", tmpName).Msg("failed to remove temp thumbnail")
		}
		return err
	}
	return nil
}
