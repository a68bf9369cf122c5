package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/spf13/afero"
)

// Error reports a corrupt archive or a failure while writing one of its
// entries. Entry is empty when the archive as a whole could not be read.
type Error struct {
	Entry string
	Err   error
}

func (e *Error) Error() string {
	if e.Entry == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Entry, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extract unpacks the ZIP archive held in data into destDir, keeping the
// archive's relative layout. destDir is created if needed. Entries that
// would land outside destDir fail the extraction. Files written before a
// failure are left in place.
func Extract(fs afero.Fs, data []byte, destDir string) (int, error) {
	if err := fs.MkdirAll(destDir, 0o755); err != nil {
		return 0, &Error{Err: fmt.Errorf("creating %s: %w", destDir, err)}
	}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, &Error{Err: err}
	}

	cleanDest := filepath.Clean(destDir)
	written := 0
	for _, f := range r.File {
		destPath, err := entryPath(cleanDest, f.Name)
		if err != nil {
			return written, &Error{Entry: f.Name, Err: err}
		}

		if f.FileInfo().IsDir() {
			if err := fs.MkdirAll(destPath, 0o755); err != nil {
				return written, &Error{Entry: f.Name, Err: err}
			}
			continue
		}

		if err := extractFile(fs, f, destPath); err != nil {
			return written, &Error{Entry: f.Name, Err: err}
		}
		written++
	}

	logging.Debugf("Verbose: extracted files=%d dest=%q\n", written, destDir)
	return written, nil
}

func entryPath(cleanDest, name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute path in archive")
	}
	destPath := filepath.Join(cleanDest, filepath.FromSlash(name))
	if destPath != cleanDest && !strings.HasPrefix(destPath, cleanDest+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes install directory")
	}
	return destPath, nil
}

func extractFile(fs afero.Fs, f *zip.File, destPath string) error {
	if err := fs.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := fs.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, rc)
	closeErr := out.Close()
	if err != nil {
		return err
	}
	return closeErr
}
