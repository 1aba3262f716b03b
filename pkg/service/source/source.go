// Package source provides interfaces.DocumentSource implementations that
// load the documents fed to ingestion.
package source

import (
	"path"
	"slices"
	"strings"
)

// DefaultExtensions are the file extensions read when none are given
var DefaultExtensions = []string{".txt", ".md"}

func normalizeExts(exts []string) []string {
	if len(exts) == 0 {
		return DefaultExtensions
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func matchExt(name string, exts []string) bool {
	return slices.Contains(exts, strings.ToLower(path.Ext(name)))
}
