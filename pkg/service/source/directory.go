package source

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/domain/interfaces"
	"github.com/secmon-lab/docqa/pkg/domain/model"
)

// Directory reads documents from files under a local directory
type Directory struct {
	root string
	exts []string
}

var _ interfaces.DocumentSource = (*Directory)(nil)

// NewDirectory creates a source reading files with the given extensions
// (default .txt and .md) under root, recursively.
func NewDirectory(root string, exts ...string) *Directory {
	return &Directory{root: root, exts: normalizeExts(exts)}
}

// Name returns the source description used in logs
func (d *Directory) Name() string {
	return "dir:" + d.root
}

// Documents yields files in lexical path order. SourceID is the file path.
func (d *Directory) Documents(ctx context.Context) iter.Seq2[*model.Document, error] {
	return func(yield func(*model.Document, error) bool) {
		var paths []string
		err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !matchExt(entry.Name(), d.exts) {
				return nil
			}
			paths = append(paths, p)
			return nil
		})
		if err != nil {
			yield(nil, goerr.Wrap(err, "failed to walk document directory", goerr.V("root", d.root)))
			return
		}

		for _, p := range paths {
			if err := ctx.Err(); err != nil {
				yield(nil, goerr.Wrap(err, "document loading cancelled"))
				return
			}

			data, err := os.ReadFile(filepath.Clean(p))
			if err != nil {
				yield(nil, goerr.Wrap(err, "failed to read document", goerr.V("path", p)))
				return
			}

			if !yield(&model.Document{SourceID: p, Body: string(data)}, nil) {
				return
			}
		}
	}
}
