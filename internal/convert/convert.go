// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns non-PDF inputs into single-file PDFs. Each input
// kind has its own backend: raster images are encoded in-process with
// pdfcpu, Word documents go through LibreOffice (local or containerized),
// and HTML pages are printed by headless Chrome.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/docmerge/internal/container"
	"github.com/pdiddy/docmerge/pkg/types"
)

// Converter writes a PDF rendition of src to dst. Implementations must not
// leave a partial file at dst on failure.
type Converter interface {
	ToPDF(ctx context.Context, src, dst string) error
}

// Set maps input kinds to the converter responsible for them. Kinds with no
// entry are not converted.
type Set map[types.Kind]Converter

// For returns the converter for kind, if any.
func (s Set) For(kind types.Kind) (Converter, bool) {
	c, ok := s[kind]
	return c, ok
}

const (
	defaultDPI         = 100
	defaultSofficeBin  = "soffice"
	defaultOfficeImage = "docmerge/libreoffice:latest"
)

// FromConfig builds the converter set described by cfg. Document conversion
// backends are not probed here; a missing office suite surfaces as a
// conversion error the first time a document is converted.
func FromConfig(cfg types.MergeConfig) (Set, error) {
	dpi := cfg.Image.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	set := Set{
		types.KindImage: NewImageConverter(dpi),
	}

	switch cfg.Document.Backend {
	case "", types.BackendSoffice:
		bin := cfg.Document.Binary
		if bin == "" {
			bin = defaultSofficeBin
		}
		set[types.KindDocument] = NewSofficeConverter(bin, container.OSExecutor{})
	case types.BackendContainer:
		image := cfg.Document.Image
		if image == "" {
			image = defaultOfficeImage
		}
		set[types.KindDocument] = NewContainerOfficeConverter(image, container.DetectRuntime)
	default:
		return nil, fmt.Errorf("unknown document backend %q (want %s or %s)",
			cfg.Document.Backend, types.BackendSoffice, types.BackendContainer)
	}

	if cfg.Web.Enabled {
		set[types.KindWeb] = NewWebConverter(cfg.Web.ExecPath)
	}
	return set, nil
}

// stem returns the base name of path without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// collect moves the converter output produced in outDir for src to dst and
// removes outDir. LibreOffice names its output after the input's stem.
func collect(outDir, src, dst string) error {
	defer os.RemoveAll(outDir)

	produced := filepath.Join(outDir, stem(src)+".pdf")
	info, err := os.Stat(produced)
	if err != nil {
		return fmt.Errorf("converter produced no PDF for %s", filepath.Base(src))
	}
	if info.Size() == 0 {
		return fmt.Errorf("converter produced an empty PDF for %s", filepath.Base(src))
	}
	if err := os.Rename(produced, dst); err != nil {
		return fmt.Errorf("moving converted PDF: %w", err)
	}
	return nil
}
