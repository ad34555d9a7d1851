// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import "regexp"

// dropToken matches one path in a drop payload: a brace-wrapped path, a
// double-quoted path, or a run of non-whitespace. Only the wrapped forms may
// contain whitespace.
var dropToken = regexp.MustCompile(`\{([^{}]*)\}|"([^"]*)"|(\S+)`)

// ParseDropPayload splits a drag-and-drop payload into paths. Paths are
// separated by whitespace; a path containing whitespace arrives wrapped in
// {braces} (Tk on Windows) or "double quotes", and the delimiters are
// stripped. Empty wrapped tokens are dropped. Existence is not checked here.
func ParseDropPayload(payload string) []string {
	matches := dropToken.FindAllStringSubmatch(payload, -1)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		var p string
		switch {
		case m[1] != "":
			p = m[1]
		case m[2] != "":
			p = m[2]
		default:
			p = m[3]
		}
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
