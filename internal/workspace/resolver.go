package workspace

import (
	"errors"
	"os"
	"path/filepath"
)

// Markers that make a directory a project root when no workspace roots are
// registered. The manifest marks an explicit project; the VCS marker catches
// plain repositories. A .git entry may be a file in worktrees, so no
// directory check is applied to it.
const (
	manifestName  = "proseflow.toml"
	vcsMarkerName = ".git"
)

// FindRoot walks up from startDir to the first ancestor carrying a project
// marker and returns it as the working directory. It reports false when the
// filesystem root is reached without a match.
func FindRoot(startDir string) (string, bool) {
	if startDir == "" {
		startDir = "."
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		log.Debugf("cannot resolve start directory %q: %s", startDir, err)
		return "", false
	}

	for {
		if hasMarker(dir) {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

func hasMarker(dir string) bool {
	for _, name := range []string{manifestName, vcsMarkerName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Debugf("failed to stat %q: %s", filepath.Join(dir, name), err)
		}
	}
	return false
}
