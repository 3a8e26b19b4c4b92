package prose

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// rc file names, probed in order. The first hit in the nearest directory
// wins.
var rcNames = []string{".proseflowrc.toml", ".proseflowrc.yaml", ".proseflowrc.yml"}

const ignoreName = ".proseflowignore"

// Config holds the rule toggles read from an rc file. Rules missing from
// the map stay enabled.
type Config struct {
	Rules map[string]bool `toml:"rules" yaml:"rules"`
}

func (c Config) enabled(rule string) bool {
	if c.Rules == nil {
		return true
	}
	on, ok := c.Rules[rule]
	if !ok {
		return true
	}
	return on
}

// findConfig searches dir and its ancestors, stopping at the working
// directory, for an rc file. It reports the path of the nearest one.
func findConfig(dir, workingDir string) (string, bool) {
	dir = filepath.Clean(dir)
	workingDir = filepath.Clean(workingDir)

	for {
		for _, name := range rcNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}

		if dir == workingDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Left the working directory without passing through it;
			// nothing above the filesystem root to probe.
			break
		}
		dir = parent
	}

	return "", false
}

// loadConfig reads an rc file, dispatching on its extension.
func loadConfig(path string) (Config, error) {
	var cfg Config

	switch filepath.Ext(path) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported rc format: %s", path)
	}

	return cfg, nil
}

// ignoreList is the parsed .proseflowignore of a working directory.
type ignoreList struct {
	patterns []string
}

// loadIgnore reads the ignore file at the working directory. A missing file
// yields an empty list; a broken one is skipped with a log line rather than
// failing the run.
func loadIgnore(workingDir string) ignoreList {
	data, err := os.ReadFile(filepath.Join(workingDir, ignoreName))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warningf("cannot read %s: %s", filepath.Join(workingDir, ignoreName), err)
		}
		return ignoreList{}
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	return ignoreList{patterns: patterns}
}

// Match reports whether the slash-separated path relative to the working
// directory is ignored. Patterns containing a slash match against the whole
// relative path; bare patterns match the base name of any file.
func (l ignoreList) Match(rel string) bool {
	base := path.Base(rel)

	for _, pattern := range l.patterns {
		if strings.Contains(pattern, "/") {
			if ok, err := path.Match(pattern, rel); err == nil && ok {
				return true
			}
			continue
		}
		if ok, err := path.Match(pattern, base); err == nil && ok {
			return true
		}
	}

	return false
}
