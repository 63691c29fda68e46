package blobStore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/akolanti/docqa/pkg/logger_i"
)

var ErrTooLarge = errors.New("upload exceeds size limit")

// Local keeps uploads on disk as {root}/{documentId}.{ext}. Files are
// written to a temporary name and renamed, so a failed upload never leaves
// a partial blob behind.
type Local struct {
	root     string
	maxBytes int64
	logger   *logger_i.Logger
}

// NewLocal creates root if needed. maxBytes <= 0 disables the size check.
func NewLocal(root string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", root, err)
	}
	return &Local{
		root:     root,
		maxBytes: maxBytes,
		logger:   logger_i.NewLogger("Blob Store").With("root", root),
	}, nil
}

func (l *Local) Save(ctx context.Context, documentId string, filename string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if documentId == "" || strings.ContainsAny(documentId, `/\`) {
		return "", 0, fmt.Errorf("invalid document id %q", documentId)
	}

	name := documentId
	if ext := strings.ToLower(filepath.Ext(filepath.Base(filename))); ext != "" {
		name += ext
	}
	dest := filepath.Join(l.root, name)

	tmp, err := os.CreateTemp(l.root, name+".*.part")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	src := r
	if l.maxBytes > 0 {
		src = io.LimitReader(r, l.maxBytes+1)
	}
	size, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		return "", 0, fmt.Errorf("writing %s: %w", name, err)
	}
	if l.maxBytes > 0 && size > l.maxBytes {
		cleanup()
		return "", 0, fmt.Errorf("%s: %w (max %d bytes)", filename, ErrTooLarge, l.maxBytes)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("moving %s into place: %w", name, err)
	}

	l.logger.WithContext(ctx).Debug("blob saved", "path", dest, "size", size)
	return dest, size, nil
}

// Delete treats a missing file as already deleted. Paths outside root are
// refused.
func (l *Local) Delete(ctx context.Context, path string) error {
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to delete %s outside %s", path, l.root)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}
