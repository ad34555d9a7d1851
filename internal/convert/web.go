// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// WebConverter prints local HTML files to PDF with headless Chrome.
type WebConverter struct {
	execPath string
}

// NewWebConverter returns a WebConverter. An empty execPath lets chromedp
// find Chrome on its own.
func NewWebConverter(execPath string) *WebConverter {
	return &WebConverter{execPath: execPath}
}

// ToPDF loads src as a file:// URL and prints it with backgrounds.
func (c *WebConverter) ToPDF(ctx context.Context, src, dst string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", src, err)
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if c.execPath != "" {
		opts = append(opts[:len(opts):len(opts)], chromedp.ExecPath(c.execPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(browserCtx, printToPDF(fileURL(abs), &buf)); err != nil {
		return fmt.Errorf("rendering %s with chrome: %w", filepath.Base(src), err)
	}
	if len(buf) == 0 {
		return fmt.Errorf("chrome produced an empty PDF for %s", filepath.Base(src))
	}
	if err := os.WriteFile(dst, buf, 0o644); err != nil {
		os.Remove(dst)
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

func fileURL(abs string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// printToPDF navigates to urlstr and captures the printed page.
func printToPDF(urlstr string, res *[]byte) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.Navigate(urlstr),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			*res = buf
			return nil
		}),
	}
}
