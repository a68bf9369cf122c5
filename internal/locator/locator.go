package locator

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/miyamgo/tmod-launcher/internal/logging"
	"github.com/spf13/afero"
)

// Target is one independently managed installation subtree and the entry
// point filenames accepted inside it.
type Target struct {
	Name          string   `toml:"name" validate:"required"`
	RootDir       string   `toml:"dir" validate:"required"`
	AcceptedNames []string `toml:"accepted-names" validate:"required,min=1,dive,required"`
}

// Resolution is the result of scanning a Target. Path is empty when no
// accepted file was found.
type Resolution struct {
	Target Target
	Path   string
}

// Found reports whether the scan produced a launchable path.
func (r Resolution) Found() bool {
	return r.Path != ""
}

// Locate walks root and returns the first regular file whose base name
// matches one of names, ignoring case. A missing root, an unreadable
// subtree or no match all yield ok=false; no error is ever returned.
func Locate(fs afero.Fs, root string, names []string) (path string, ok bool) {
	if root == "" || len(names) == 0 {
		return "", false
	}
	if exists, err := afero.DirExists(fs, root); err != nil || !exists {
		logging.Debugf("Verbose: locate root=%q missing\n", root)
		return "", false
	}

	accepted := make(map[string]struct{}, len(names))
	for _, n := range names {
		accepted[strings.ToLower(n)] = struct{}{}
	}

	walkRoot := resolveRoot(fs, root)
	walkErr := afero.Walk(fs, walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			// Skip what we can't read and keep going.
			logging.Debugf("Verbose: locate skipping %q: %v\n", p, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := info.Name()
		if info.Mode()&os.ModeSymlink != 0 {
			// Linked files count, linked directories are not entered.
			target, err := fs.Stat(p)
			if err != nil {
				return nil
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if _, hit := accepted[strings.ToLower(name)]; hit {
			path = p
			if rel, err := filepath.Rel(walkRoot, p); err == nil {
				path = filepath.Join(root, rel)
			}
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, filepath.SkipAll) {
		logging.Debugf("Verbose: locate walk root=%q ended early: %v\n", root, walkErr)
	}

	if path == "" {
		return "", false
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	logging.Debugf("Verbose: locate root=%q found=%q\n", root, path)
	return path, true
}

// resolveRoot follows a symlinked root on the host filesystem so the walk
// descends into it. Links below the root are left alone.
func resolveRoot(fs afero.Fs, root string) string {
	if _, ok := fs.(*afero.OsFs); !ok {
		return root
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return root
	}
	return resolved
}

// Scan resolves a single target.
func Scan(fs afero.Fs, t Target) Resolution {
	p, _ := Locate(fs, t.RootDir, t.AcceptedNames)
	return Resolution{Target: t, Path: p}
}

// ScanAll resolves every target in order. Results are never cached; call it
// again whenever the on-disk state may have changed.
func ScanAll(fs afero.Fs, targets []Target) []Resolution {
	out := make([]Resolution, 0, len(targets))
	for _, t := range targets {
		out = append(out, Scan(fs, t))
	}
	return out
}
