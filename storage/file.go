package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/bimgraph/ident"
)

// FileSink writes documents beside their model file, or into Dir when set.
type FileSink struct {
	Dir string
}

var _ Sink = FileSink{}

// Name identifies the sink in logs and metrics.
func (FileSink) Name() string { return "file" }

// Path returns where doc is written.
func (s FileSink) Path(doc *Document) string {
	var name string
	if doc.ModelPath != "" {
		name = strings.TrimSuffix(doc.ModelPath, filepath.Ext(doc.ModelPath)) + doc.Extension()
	} else {
		name = ident.Sanitize(doc.ProjectID) + doc.Extension()
	}
	if s.Dir != "" {
		return filepath.Join(s.Dir, filepath.Base(name))
	}
	return name
}

// Store writes doc through a temporary file so readers never see a
// partial document.
func (s FileSink) Store(ctx context.Context, doc *Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Content == "" {
		return ErrEmptyDocument
	}

	path := s.Path(doc)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(doc.Content); err != nil {
		tmp.Close()
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close document: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}
