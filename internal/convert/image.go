// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	// Registered decoders for the supported raster formats.
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/pdiddy/docmerge/internal/pdfops"
)

const pointsPerInch = 72

// ImageConverter renders a raster image as a single PDF page sized so the
// image appears at a fixed resolution.
type ImageConverter struct {
	dpi float64
}

// NewImageConverter returns an ImageConverter that sizes pages at dpi.
func NewImageConverter(dpi float64) *ImageConverter {
	return &ImageConverter{dpi: dpi}
}

// ToPDF decodes src, flattens alpha and palette images to opaque RGB, and
// writes a one-page PDF to dst.
func (c *ImageConverter) ToPDF(_ context.Context, src, dst string) error {
	img, err := decodeImage(src)
	if err != nil {
		return err
	}
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("image %s has no pixels", src)
	}

	staged := strings.TrimSuffix(dst, ".pdf") + ".png"
	if err := writePNG(staged, Flatten(img)); err != nil {
		return err
	}
	defer os.Remove(staged)

	w := float64(b.Dx()) * pointsPerInch / c.dpi
	h := float64(b.Dy()) * pointsPerInch / c.dpi
	if err := pdfops.ImportImage(staged, dst, w, h); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// hasAlphaOrPalette reports whether img's color model carries an alpha
// channel or a palette.
func hasAlphaOrPalette(img image.Image) bool {
	switch img.(type) {
	case *image.RGBA, *image.RGBA64, *image.NRGBA, *image.NRGBA64,
		*image.Alpha, *image.Alpha16, *image.Paletted:
		return true
	}
	return false
}

// Flatten returns img unchanged unless it has an alpha channel or a palette,
// in which case it returns an opaque RGB copy. The alpha channel is
// discarded, keeping the stored color of each pixel.
func Flatten(img image.Image) image.Image {
	if !hasAlphaOrPalette(img) {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return out
}
