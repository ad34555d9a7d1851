// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdiddy/docmerge/internal/container"
)

// officeArgs returns the LibreOffice arguments converting src into outDir.
func officeArgs(src, outDir string) []string {
	return []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, src}
}

// SofficeConverter converts Word documents with a locally installed
// LibreOffice binary.
type SofficeConverter struct {
	bin  string
	exec container.Executor
}

// NewSofficeConverter returns a converter running bin through exec.
func NewSofficeConverter(bin string, exec container.Executor) *SofficeConverter {
	return &SofficeConverter{bin: bin, exec: exec}
}

// ToPDF runs soffice in headless mode and moves its output to dst.
func (c *SofficeConverter) ToPDF(ctx context.Context, src, dst string) error {
	if _, err := c.exec.LookPath(c.bin); err != nil {
		return fmt.Errorf("office suite %q not found: %w", c.bin, err)
	}

	outDir := dst + ".d"
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating conversion directory: %w", err)
	}

	// A private profile lets several soffice processes run side by side.
	profile := (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(outDir, "profile"))}).String()
	args := append([]string{"-env:UserInstallation=" + profile}, officeArgs(src, outDir)...)

	var stderr bytes.Buffer
	if err := c.exec.RunContext(ctx, c.bin, args, &bytes.Buffer{}, &stderr); err != nil {
		os.RemoveAll(outDir)
		return fmt.Errorf("converting %s with %s: %w%s", filepath.Base(src), c.bin, err, detail(&stderr))
	}
	return collect(outDir, src, dst)
}

// ContainerOfficeConverter converts Word documents with LibreOffice running
// in a container image whose entrypoint is soffice. The runtime is detected
// and the image checked on first use.
type ContainerOfficeConverter struct {
	image  string
	detect func() (container.Runtime, error)

	once sync.Once
	rt   container.Runtime
	err  error
}

// NewContainerOfficeConverter returns a converter for image using the
// runtime returned by detect.
func NewContainerOfficeConverter(image string, detect func() (container.Runtime, error)) *ContainerOfficeConverter {
	return &ContainerOfficeConverter{image: image, detect: detect}
}

func (c *ContainerOfficeConverter) runtime() (container.Runtime, error) {
	c.once.Do(func() {
		rt, err := c.detect()
		if err != nil {
			c.err = err
			return
		}
		if err := rt.ImageExists(c.image); err != nil {
			c.err = fmt.Errorf("office image not available in %s: %w", rt.Name(), err)
			return
		}
		c.rt = rt
	})
	return c.rt, c.err
}

// ToPDF mounts the document's directory read-only, runs the container, and
// moves its output to dst.
func (c *ContainerOfficeConverter) ToPDF(ctx context.Context, src, dst string) error {
	rt, err := c.runtime()
	if err != nil {
		return err
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", src, err)
	}
	outDir, err := filepath.Abs(dst + ".d")
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dst, err)
	}
	if err := os.MkdirAll(outDir, 0o777); err != nil {
		return fmt.Errorf("creating conversion directory: %w", err)
	}

	spec := container.RunSpec{
		Image: c.image,
		Args:  officeArgs("/in/"+filepath.Base(absSrc), "/out"),
		Mounts: []container.Mount{
			{Source: filepath.Dir(absSrc), Target: "/in", ReadOnly: true},
			{Source: outDir, Target: "/out"},
		},
	}
	var stderr bytes.Buffer
	if err := rt.Run(ctx, spec, &bytes.Buffer{}, &stderr); err != nil {
		os.RemoveAll(outDir)
		return fmt.Errorf("converting %s: %w%s", filepath.Base(src), err, detail(&stderr))
	}
	return collect(outDir, src, dst)
}

// detail formats captured stderr for inclusion in an error message.
func detail(stderr *bytes.Buffer) string {
	s := strings.TrimSpace(stderr.String())
	if s == "" {
		return ""
	}
	return ": " + s
}
