// Package corpus loads category documents and extracts the concept registry.
package corpus

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// Document is one category file of the corpus.
type Document struct {
	Category taxonomy.Category `json:"category"`
	File     string            `json:"file"`
	Color    string            `json:"color"`
	Content  []byte            `json:"-"`
}

// Warning records a recoverable problem found while loading the corpus.
type Warning struct {
	Category taxonomy.Category `json:"category"`
	File     string            `json:"file"`
	Message  string            `json:"message"`
}

// Corpus is the set of documents that loaded successfully, in taxonomy order.
type Corpus struct {
	Documents []Document `json:"documents"`
	Warnings  []Warning  `json:"warnings,omitempty"`
}

// Loader reads one document per taxonomy category from a file system.
type Loader struct {
	fsys     fs.FS
	taxonomy *taxonomy.Taxonomy
}

// NewLoader creates a loader over fsys.
func NewLoader(fsys fs.FS, tax *taxonomy.Taxonomy) *Loader {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Loader{fsys: fsys, taxonomy: tax}
}

// LoadDir loads the corpus stored in dir. A missing directory is an error;
// a missing category document is only a warning.
func LoadDir(ctx context.Context, dir string, tax *taxonomy.Taxonomy) (*Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to access corpus directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("corpus path %s is not a directory", dir)
	}
	return NewLoader(os.DirFS(dir), tax).Load(ctx)
}

// Load reads every category document concurrently. Documents keep the
// taxonomy order regardless of completion order.
func (l *Loader) Load(ctx context.Context) (*Corpus, error) {
	specs := l.taxonomy.Specs()
	docs := make([]*Document, len(specs))

	var (
		mu       sync.Mutex
		warnings []Warning
	)

	g, gCtx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			content, err := fs.ReadFile(l.fsys, spec.File)
			if err != nil {
				slog.Warn("skipping unreadable category document",
					slog.String("category", string(spec.Name)),
					slog.String("file", spec.File),
					slog.String("error", err.Error()))
				mu.Lock()
				warnings = append(warnings, Warning{
					Category: spec.Name,
					File:     spec.File,
					Message:  err.Error(),
				})
				mu.Unlock()
				return nil
			}
			docs[i] = &Document{
				Category: spec.Name,
				File:     spec.File,
				Color:    spec.Color,
				Content:  content,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "load corpus")
	}

	c := &Corpus{Documents: make([]Document, 0, len(docs))}
	for _, d := range docs {
		if d != nil {
			c.Documents = append(c.Documents, *d)
		}
	}

	// Warnings are reported in taxonomy order too.
	for _, spec := range specs {
		for _, w := range warnings {
			if w.File == spec.File {
				c.Warnings = append(c.Warnings, w)
			}
		}
	}
	return c, nil
}
