package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoProcessor reports that no processor could be resolved for a working
// directory. Resolvers wrap it so callers can test with errors.Is.
var ErrNoProcessor = errors.New("no processor found")

// Request describes one engine run: the files of a single group, the working
// directory they share, and the options the run was dispatched with.
type Request struct {
	// Dir is the working directory for the run. Configuration and ignore
	// lookups stop at it.
	Dir string `json:"dir"`
	// RequireConfig makes the run a no-op for files that have no local
	// configuration file.
	RequireConfig bool `json:"requireConfig"`
	// Serialize asks the run to include each file's serialized text in its
	// result.
	Serialize bool `json:"serialize"`
	// Files are processed entirely in memory.
	Files []File `json:"files"`
}

// Processor runs the document pipeline over a request's files. A Processor
// must return one Result per file it handled; files it skipped simply have
// no result.
type Processor interface {
	Run(ctx context.Context, req Request) ([]Result, error)
}

// Resolver locates the processor serving a working directory.
type Resolver interface {
	Resolve(ctx context.Context, dir string) (Processor, error)
}

// DirResolver resolves a named processor to an executable installed inside
// the working directory, at <dir>/.proseflow/<name>. The executable speaks
// JSON over stdio: a Request on stdin, an array of Results on stdout.
type DirResolver struct {
	// Name of the processor executable to look for.
	Name string
}

// Resolve returns a processor backed by the workspace-local executable, or
// an error wrapping ErrNoProcessor when the directory has none.
func (r *DirResolver) Resolve(ctx context.Context, dir string) (Processor, error) {
	path := filepath.Join(dir, ".proseflow", r.Name)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %q in %s", ErrNoProcessor, r.Name, dir)
	}
	if info.Mode()&0o111 == 0 {
		return nil, fmt.Errorf("%w: %q in %s is not executable", ErrNoProcessor, r.Name, dir)
	}

	return &execProcessor{path: path}, nil
}

// execProcessor shells out to a workspace-local processor executable.
type execProcessor struct {
	path string
}

func (p *execProcessor) Run(ctx context.Context, req Request) ([]Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.path)
	cmd.Dir = req.Dir
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("processor %s: %w", p.path, err)
		}
		return nil, fmt.Errorf("processor %s: %w: %s", p.path, err, msg)
	}

	var results []Result
	if err := json.Unmarshal(stdout.Bytes(), &results); err != nil {
		return nil, fmt.Errorf("processor %s: decode output: %w", p.path, err)
	}

	return results, nil
}
