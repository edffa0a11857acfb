// Package pathutil resolves user-supplied paths the same way in every front end.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// ResolveAbsolutePath expands "~", makes path absolute and resolves symlinks
// in the part of it that exists. Missing trailing components are kept, so an
// output directory that is about to be created resolves too.
func ResolveAbsolutePath(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	path, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return resolveExisting(absPath), nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of an
// absolute path and joins the missing tail back on.
func resolveExisting(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p
	}
	return filepath.Join(resolveExisting(parent), filepath.Base(p))
}
