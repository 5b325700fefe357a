// Package archive packages a resolved workspace into a ZIP file. Entries are
// rooted at the workspace's contents, so extracting the archive yields the
// folder's files directly rather than a wrapping temp-dir name.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"

	"github.com/flatzip/flatzip/internal/event"
	"github.com/flatzip/flatzip/internal/filter"
	"github.com/flatzip/flatzip/internal/stats"
)

// zipFlagEFS marks filenames and comments as UTF-8 encoded.
const zipFlagEFS = 0x800

// Error wraps any failure during archiving.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("archive %s: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Config describes one archive operation.
type Config struct {
	// SourceDir is the workspace to package.
	SourceDir string
	// Excludes filters entries out of the archive; may be nil.
	Excludes *filter.Chain
	// Events receives progress events; may be nil.
	Events chan<- event.Event
	// Stats receives counters; may be nil.
	Stats stats.Writer
	// Logger for diagnostics; defaults to slog.Default().
	Logger *slog.Logger
}

// CreateZip writes a ZIP archive of cfg.SourceDir's contents to w.
func CreateZip(w io.Writer, cfg Config) error {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	event.Emit(cfg.Events, event.Event{Type: event.ArchiveStarted, Path: cfg.SourceDir})

	zw := zip.NewWriter(w)
	// Swap in the faster deflate implementation.
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	walkErr := filepath.WalkDir(cfg.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == cfg.SourceDir {
			return nil
		}

		rel, err := filepath.Rel(cfg.SourceDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if cfg.Excludes != nil && cfg.Excludes.Excluded(rel, d.IsDir()) {
			cfg.Logger.Debug("entry excluded from archive", "path", rel)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		return createEntry(zw, cfg, path, rel, d)
	})
	if walkErr != nil {
		zw.Close()
		return &Error{Path: cfg.SourceDir, Err: walkErr}
	}

	if err := zw.Close(); err != nil {
		return &Error{Path: cfg.SourceDir, Err: err}
	}

	event.Emit(cfg.Events, event.Event{Type: event.ArchiveComplete, Path: cfg.SourceDir})
	return nil
}

func createEntry(zw *zip.Writer, cfg Config, path, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		cfg.Logger.Warn("entry ignored", "path", rel, "error", err)
		return nil
	}

	fh, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	fh.Name = rel
	fh.Flags |= zipFlagEFS

	switch info.Mode() & os.ModeType {
	case os.ModeDir:
		return createDirectoryEntry(zw, cfg, fh, rel)

	case os.ModeSymlink:
		return createSymlinkEntry(zw, cfg, fh, path, rel)

	case os.ModeNamedPipe, os.ModeSocket, os.ModeDevice:
		cfg.Logger.Warn("entry ignored", "path", rel, "mode", info.Mode().String())
		return nil

	default:
		return createFileEntry(zw, cfg, fh, path, rel, info.Size())
	}
}

func createDirectoryEntry(zw *zip.Writer, cfg Config, fh *zip.FileHeader, rel string) error {
	fh.Name += "/"
	if _, err := zw.CreateHeader(fh); err != nil {
		return err
	}
	addArchived(cfg, rel, 0)
	return nil
}

func createSymlinkEntry(zw *zip.Writer, cfg Config, fh *zip.FileHeader, path, rel string) error {
	fw, err := zw.CreateHeader(fh)
	if err != nil {
		return err
	}

	link, err := os.Readlink(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(fw, link); err != nil {
		return err
	}
	addArchived(cfg, rel, 0)
	return nil
}

func createFileEntry(zw *zip.Writer, cfg Config, fh *zip.FileHeader, path, rel string, size int64) error {
	fh.Method = zip.Deflate
	fw, err := zw.CreateHeader(fh)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	_, err = io.Copy(fw, file)
	file.Close()
	if err != nil {
		return err
	}

	addArchived(cfg, rel, size)
	return nil
}

func addArchived(cfg Config, rel string, size int64) {
	if cfg.Stats != nil {
		cfg.Stats.AddEntriesArchived(1)
	}
	event.Emit(cfg.Events, event.Event{Type: event.ArchiveEntry, Path: rel, Size: size})
}

// CreateZipFile archives cfg.SourceDir into a new file at archivePath,
// removing the partial file if archiving fails.
func CreateZipFile(archivePath string, cfg Config) error {
	f, err := os.Create(archivePath)
	if err != nil {
		return &Error{Path: archivePath, Err: err}
	}

	if err := CreateZip(f, cfg); err != nil {
		f.Close()
		os.Remove(archivePath)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(archivePath)
		return &Error{Path: archivePath, Err: err}
	}
	return nil
}
