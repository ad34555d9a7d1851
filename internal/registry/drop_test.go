// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDropPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"single bare path", "/tmp/a.pdf", []string{"/tmp/a.pdf"}},
		{"several bare paths", "/tmp/a.pdf  /tmp/b.png\n/tmp/c.docx", []string{"/tmp/a.pdf", "/tmp/b.png", "/tmp/c.docx"}},
		{"braced path with spaces", "{C:/My Files/test.pdf}", []string{"C:/My Files/test.pdf"}},
		{"mixed braced and bare", "C:/a.pdf {C:/My Files/b.png} C:/c.docx", []string{"C:/a.pdf", "C:/My Files/b.png", "C:/c.docx"}},
		{"quoted path", `"/home/u/My Docs/x.doc" /tmp/y.pdf`, []string{"/home/u/My Docs/x.doc", "/tmp/y.pdf"}},
		{"adjacent braced", "{a b.pdf}{c d.pdf}", []string{"a b.pdf", "c d.pdf"}},
		{"empty braces dropped", "{} /tmp/a.pdf", []string{"/tmp/a.pdf"}},
		{"empty payload", "   ", []string{}},
		{"unbalanced brace is split on whitespace", "{a b.pdf", []string{"{a", "b.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDropPayload(tt.payload))
		})
	}
}

func TestDropAdmitsOnlyExistingFiles(t *testing.T) {
	dir := t.TempDir()
	spaced := touch(t, dir, "My Scan.png")
	plain := touch(t, dir, "plain.pdf")
	missing := filepath.Join(dir, "gone.pdf")

	r := New()
	payload := "{" + spaced + "} " + plain + " " + missing + " " + plain
	added := r.Drop(payload)

	assert.Equal(t, []string{spaced, plain}, added)
	assert.Equal(t, []string{spaced, plain}, r.Paths())
}
