// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the docmerge pipeline:
// input files and their kinds, job events and results, and configuration.
package types

import (
	"path/filepath"
	"strings"
)

// Kind is the conversion category of an input file, derived from its extension.
type Kind string

const (
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindDocument    Kind = "document"
	KindWeb         Kind = "web"
	KindUnsupported Kind = "unsupported"
)

// extensionKinds maps lower-cased extensions to kinds. Anything missing is
// KindUnsupported.
var extensionKinds = map[string]Kind{
	".pdf":  KindPDF,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".bmp":  KindImage,
	".tiff": KindImage,
	".tif":  KindImage,
	".doc":  KindDocument,
	".docx": KindDocument,
	".html": KindWeb,
	".htm":  KindWeb,
}

// Classify returns the Kind of path based on its extension, ignoring case.
func Classify(path string) Kind {
	if k, ok := extensionKinds[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return KindUnsupported
}

// Fatal reports whether a conversion failure for this kind aborts the whole
// job. Document and web conversions depend on external programs whose
// availability cannot be checked in advance.
func (k Kind) Fatal() bool {
	return k == KindDocument || k == KindWeb
}

// NeedsConversion reports whether files of this kind go through a converter
// before concatenation.
func (k Kind) NeedsConversion() bool {
	return k == KindImage || k == KindDocument || k == KindWeb
}

// FileEntry is one input file in the registry. Identity is Path.
type FileEntry struct {
	// Path is the file-system path as it was added.
	Path string `json:"path" yaml:"path"`

	// Kind is derived from the extension at add time.
	Kind Kind `json:"kind" yaml:"kind"`
}

// NewFileEntry builds a FileEntry for path, classifying it by extension.
func NewFileEntry(path string) FileEntry {
	return FileEntry{Path: path, Kind: Classify(path)}
}

// Name returns the base name of the file, used in progress reports.
func (e FileEntry) Name() string {
	return filepath.Base(e.Path)
}
