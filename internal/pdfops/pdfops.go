// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfops wraps the pdfcpu operations docmerge needs: page
// concatenation, page counting and single-image page creation.
package pdfops

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

func config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge concatenates inputs, in order, into a new PDF at out. A single input
// is copied as-is.
func Merge(inputs []string, out string) error {
	switch len(inputs) {
	case 0:
		return fmt.Errorf("no input files to merge")
	case 1:
		return copyFile(inputs[0], out)
	}
	if err := api.MergeCreateFile(inputs, out, false, config()); err != nil {
		return fmt.Errorf("merging %d files: %w", len(inputs), err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return n, nil
}

// ImportImage writes a single-page PDF at out whose page is widthPt x
// heightPt points and is filled by the image at imgPath.
func ImportImage(imgPath, out string, widthPt, heightPt float64) error {
	imp := pdfcpu.DefaultImportConfig()
	imp.PageDim = &types.Dim{Width: widthPt, Height: heightPt}
	imp.UserDim = true
	imp.Pos = types.Full

	if err := api.ImportImagesFile([]string{imgPath}, out, imp, config()); err != nil {
		return fmt.Errorf("importing image %s: %w", imgPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
