package checkpoint

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/enrich/core"
)

const (
	defaultFilePerm = 0o644
	defaultDirPerm  = 0o755
	bufSize         = 64 * 1024
)

// Sink persists the complete result document.
type Sink interface {
	Persist(ctx context.Context, records []core.Record) error
}

// FileSink writes records as a pretty-printed JSON array.
type FileSink struct {
	path   string
	logger *slog.Logger

	// rename replaces the destination; swapped in tests.
	rename func(oldpath, newpath string) error
}

var _ Sink = (*FileSink)(nil)

// NewFileSink creates a sink writing to path. The parent directory is
// created on the first write if it does not exist.
func NewFileSink(path string) (*FileSink, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: output path is empty", core.ErrPersistence)
	}
	return &FileSink{
		path:   path,
		logger: slog.Default().With("component", "file-sink"),
		rename: os.Rename,
	}, nil
}

// Path returns the destination path.
func (s *FileSink) Path() string {
	return s.path
}

// Encode writes records to w as a JSON array indented with four spaces,
// without HTML escaping.
func Encode(w io.Writer, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(records)
}

// Persist atomically replaces the document with records.
func (s *FileSink) Persist(ctx context.Context, records []core.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	if err := s.writeAtomic(records); err != nil {
		return fmt.Errorf("%w: writing %s: %w", core.ErrPersistence, s.path, err)
	}
	s.logger.Debug("document written", "path", s.path, "records", len(records))
	return nil
}

func (s *FileSink) writeAtomic(records []core.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, defaultFilePerm)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	bw := bufio.NewWriterSize(tmp, bufSize)
	if err := Encode(bw, records); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := s.rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// Best effort: persist the rename itself.
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
