// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"image"
	"image/color"
	"image/color/palette"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/pdiddy/docmerge/internal/pdfops"
)

func checker(b image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := uint8(0xff)
			if (x+y)%2 == 0 {
				a = 0x40
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 120, B: 230, A: a})
		}
	}
	return img
}

func writeImage(t *testing.T, path string, encode func(f *os.File) error) string {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, encode(f))
	require.NoError(t, f.Close())
	return path
}

func TestImageConverterFormats(t *testing.T) {
	dir := t.TempDir()
	rect := image.Rect(0, 0, 30, 20)

	paletted := image.NewPaletted(rect, palette.Plan9)
	paletted.SetColorIndex(3, 3, 7)

	gray := image.NewGray(rect)
	gray.SetGray(1, 1, color.Gray{Y: 128})

	inputs := map[string]func(*os.File) error{
		"alpha.png":   func(f *os.File) error { return png.Encode(f, checker(rect)) },
		"palette.png": func(f *os.File) error { return png.Encode(f, paletted) },
		"photo.jpg":   func(f *os.File) error { return jpeg.Encode(f, gray, nil) },
		"scan.bmp":    func(f *os.File) error { return bmp.Encode(f, checker(rect)) },
		"fax.tiff":    func(f *os.File) error { return tiff.Encode(f, gray, nil) },
	}

	c := NewImageConverter(100)
	for name, enc := range inputs {
		t.Run(name, func(t *testing.T) {
			src := writeImage(t, filepath.Join(dir, name), enc)
			dst := filepath.Join(dir, "out_"+name+".pdf")

			require.NoError(t, c.ToPDF(context.Background(), src, dst))

			n, err := pdfops.PageCount(dst)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.NoFileExists(t, filepath.Join(dir, "out_"+name+".png"), "staged PNG must be removed")
		})
	}
}

func TestImageConverterErrors(t *testing.T) {
	dir := t.TempDir()
	c := NewImageConverter(100)

	corrupt := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(corrupt, []byte("definitely not a png"), 0o644))
	dst := filepath.Join(dir, "broken.pdf")
	err := c.ToPDF(context.Background(), corrupt, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding image")
	assert.NoFileExists(t, dst)

	err = c.ToPDF(context.Background(), filepath.Join(dir, "missing.png"), dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening image")
}

func TestFlatten(t *testing.T) {
	rect := image.Rect(0, 0, 4, 4)

	t.Run("alpha is dropped, color kept", func(t *testing.T) {
		out := Flatten(checker(rect))
		rgba, ok := out.(*image.RGBA)
		require.True(t, ok)
		c := rgba.RGBAAt(0, 0)
		assert.Equal(t, color.RGBA{R: 10, G: 120, B: 230, A: 0xff}, c)
		assert.True(t, rgba.Opaque())
	})

	t.Run("palette becomes RGB", func(t *testing.T) {
		p := image.NewPaletted(rect, color.Palette{color.Black, color.White})
		p.SetColorIndex(1, 1, 1)
		out := Flatten(p)
		rgba, ok := out.(*image.RGBA)
		require.True(t, ok)
		assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, rgba.RGBAAt(1, 1))
	})

	t.Run("gray left untouched", func(t *testing.T) {
		g := image.NewGray(rect)
		assert.Same(t, g, Flatten(g))
	})

	t.Run("ycbcr left untouched", func(t *testing.T) {
		y := image.NewYCbCr(rect, image.YCbCrSubsampleRatio444)
		assert.Same(t, y, Flatten(y))
	})
}
