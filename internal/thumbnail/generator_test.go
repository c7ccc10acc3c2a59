package thumbnail

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultSpec = Spec{OGWidth: 1200, OGHeight: 630, ListHeight: 400, Quality: 85}

// writePage writes a w×h JPEG whose top half is red and bottom half blue
func writePage(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := color.RGBA{R: 255, A: 255}
		if y >= h/2 {
			c = color.RGBA{B: 255, A: 255}
		}
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	p := filepath.Join(dir, "page-1.jpg")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
	require.NoError(t, f.Close())
	return p
}

func readJPEG(t *testing.T, p string) image.Image {
	t.Helper()
	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	return img
}

func TestGenerate_BothOutputs(t *testing.T) {
	dir := t.TempDir()
	src := writePage(t, dir, 1000, 1500)

	res := NewImageGenerator().Generate(src, dir, defaultSpec)
	require.NoError(t, res.OGErr)
	require.NoError(t, res.ListErr)
	assert.Equal(t, filepath.Join(dir, "og-thumb.jpg"), res.OGPath)
	assert.Equal(t, filepath.Join(dir, "list-thumb.jpg"), res.ListPath)

	og := readJPEG(t, res.OGPath)
	assert.Equal(t, 1200, og.Bounds().Dx())
	assert.Equal(t, 630, og.Bounds().Dy())

	list := readJPEG(t, res.ListPath)
	assert.Equal(t, 400, list.Bounds().Dy())
	assert.Equal(t, 266, list.Bounds().Dx())
}

func TestGenerate_OGIsTopAnchored(t *testing.T) {
	dir := t.TempDir()
	src := writePage(t, dir, 1000, 1500)

	res := NewImageGenerator().Generate(src, dir, defaultSpec)
	require.NoError(t, res.OGErr)

	og := readJPEG(t, res.OGPath)
	// the crop covers only the red top half of the page
	for _, y := range []int{5, 315, 620} {
		r, _, b, _ := og.At(600, y).RGBA()
		assert.Greater(t, r>>8, uint32(200), "row %d should be red", y)
		assert.Less(t, b>>8, uint32(60), "row %d should not be blue", y)
	}
}

func TestTopCrop_ShortSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 20))
	out := TopCrop(src, 1200, 630)
	assert.Equal(t, 1200, out.Bounds().Dx())
	assert.Equal(t, 240, out.Bounds().Dy())
}

func TestFitHeight_Upscales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 100))
	out := FitHeight(src, 400)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 400, out.Bounds().Dy())
}

func TestGenerate_MissingSource(t *testing.T) {
	dir := t.TempDir()
	res := NewImageGenerator().Generate(filepath.Join(dir, "page-1.jpg"), dir, defaultSpec)

	assert.Error(t, res.OGErr)
	assert.Error(t, res.ListErr)
	assert.Empty(t, res.OGPath)
	assert.Empty(t, res.ListPath)
	assert.NoFileExists(t, filepath.Join(dir, "og-thumb.jpg"))
}

func TestGenerate_UnwritableDir(t *testing.T) {
	dir := t.TempDir()
	src := writePage(t, dir, 100, 150)

	res := NewImageGenerator().Generate(src, filepath.Join(dir, "missing"), defaultSpec)
	assert.Error(t, res.OGErr)
	assert.Error(t, res.ListErr)
}

func TestGenerate_NotAnImage(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "page-1.jpg")
	require.NoError(t, os.WriteFile(p, []byte("not a jpeg"), 0o644))

	res := NewImageGenerator().Generate(p, dir, defaultSpec)
	assert.Error(t, res.OGErr)
	assert.Error(t, res.ListErr)
}
