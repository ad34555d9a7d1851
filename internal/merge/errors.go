// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/docmerge/pkg/types"
)

// Input errors, reported before a job starts.
var (
	ErrNoFiles  = errors.New("no files selected")
	ErrNoOutput = errors.New("no output path chosen")
)

// ErrNothingToMerge aborts a job in which every input was skipped.
var ErrNothingToMerge = errors.New("no input produced any pages")

// ConversionError reports a failed conversion of one input. Fatal errors
// abort the job; the others are recorded and the input skipped.
type ConversionError struct {
	Path  string
	Kind  types.Kind
	Fatal bool
	Err   error
}

func (e *ConversionError) Error() string {
	name := filepath.Base(e.Path)
	switch e.Kind {
	case types.KindDocument:
		return fmt.Sprintf("cannot convert Word file %s (a supported office suite such as LibreOffice is required): %v", name, e.Err)
	case types.KindWeb:
		return fmt.Sprintf("cannot render HTML file %s (Chrome or Chromium is required): %v", name, e.Err)
	}
	return fmt.Sprintf("cannot convert %s file %s: %v", e.Kind, name, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err was raised before the job started.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNoFiles) || errors.Is(err, ErrNoOutput)
}

// FatalFile returns the input path that aborted the job when err is a fatal
// conversion error.
func FatalFile(err error) (string, bool) {
	var ce *ConversionError
	if errors.As(err, &ce) && ce.Fatal {
		return ce.Path, true
	}
	return "", false
}
