// Package archive writes an assembled pack tree into a single compressed
// add-on archive and validates produced archives structurally.
package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// Write walks treeRoot in deterministic (lexical) order and writes every
// regular file into a zip archive at dest, with entry names relative to the
// root. The archive is written to a temporary path and renamed into place,
// so a failed write leaves no partial file behind. Returns the archive size
// in bytes.
func Write(treeRoot, dest string) (int64, error) {
	if _, err := os.Stat(treeRoot); err != nil {
		return 0, fmt.Errorf("archive: pack tree: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("archive: %w", err)
	}

	tmp := dest + ".tmp"
	if err := writeZip(treeRoot, tmp); err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("archive: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return 0, fmt.Errorf("archive: %w", err)
	}
	return info.Size(), nil
}

func writeZip(treeRoot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	zw := zip.NewWriter(f)

	// WalkDir visits entries in lexical order, which keeps entry order
	// stable across runs regardless of conversion completion order.
	walkErr := filepath.WalkDir(treeRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(treeRoot, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(p)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		_ = src.Close()
		return err
	})
	if walkErr != nil {
		_ = zw.Close()
		_ = f.Close()
		return fmt.Errorf("archive: %w", walkErr)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	return nil
}
