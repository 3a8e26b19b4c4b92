package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("proseflow.engine")

// Doc identifies one open document at dispatch time. Text is the buffer
// content the run should see, already captured by the caller.
type Doc struct {
	URI  string
	Path string
	Text string
}

// Dispatcher partitions documents into groups that share a working directory
// and a configuration requirement, then runs one engine call per group. The
// groups run concurrently with no ordering between them.
type Dispatcher struct {
	// Resolver locates the processor for a group's working directory.
	Resolver Resolver

	// Fallback serves groups whose directory has no processor installed.
	// When nil, such groups go unprocessed and the failure is reported
	// through Notify.
	Fallback Processor

	// ResolveDir maps a document URI to its working directory. Documents
	// without one are dropped from the batch.
	ResolveDir func(ctx context.Context, uri string) (string, bool)

	// RequireConfig reports the per-scope setting that restricts runs to
	// files with local configuration.
	RequireConfig func(ctx context.Context, uri string) bool

	// Notify surfaces a user-facing message when a whole group cannot be
	// processed. Called at most once per group per run.
	Notify func(text string)
}

// Run takes the documents of one batch through resolution, grouping, and
// dispatch, and returns the per-document results keyed by URI. Documents
// that resolve to no working directory, belong to a group with no usable
// processor, or have no matching result file are absent from the returned
// map. Failures inside the engine never surface as errors here; they come
// back as fatal messages on every document of the failing group.
func (d *Dispatcher) Run(ctx context.Context, docs []Doc, serialize bool) map[string]Result {
	entries := d.resolve(ctx, docs)
	groups := partition(entries)

	var mu sync.Mutex
	out := make(map[string]Result)

	g, gctx := errgroup.WithContext(ctx)
	for _, grp := range groups {
		grp := grp
		g.Go(func() error {
			results := d.runGroup(gctx, grp, serialize)
			if len(results) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for uri, res := range results {
				out[uri] = res
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// entry is a document with its resolution outcome attached.
type entry struct {
	doc           Doc
	dir           string
	requireConfig bool
}

// resolve determines each document's working directory and configuration
// concurrently. Order of the input is preserved for the survivors so that
// grouping stays deterministic.
func (d *Dispatcher) resolve(ctx context.Context, docs []Doc) []entry {
	entries := make([]entry, len(docs))
	keep := make([]bool, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			dir, ok := d.ResolveDir(gctx, doc.URI)
			if !ok {
				log.Debugf("no working directory for %s, dropping from batch", doc.URI)
				return nil
			}
			entries[i] = entry{
				doc:           doc,
				dir:           dir,
				requireConfig: d.RequireConfig(gctx, doc.URI),
			}
			keep[i] = true
			return nil
		})
	}
	_ = g.Wait()

	resolved := entries[:0]
	for i := range entries {
		if keep[i] {
			resolved = append(resolved, entries[i])
		}
	}
	return resolved
}

type groupKey struct {
	dir           string
	requireConfig bool
}

type group struct {
	groupKey
	docs []Doc
}

func partition(entries []entry) []*group {
	byKey := make(map[groupKey]*group)
	var groups []*group
	for _, e := range entries {
		key := groupKey{dir: e.dir, requireConfig: e.requireConfig}
		grp, ok := byKey[key]
		if !ok {
			grp = &group{groupKey: key}
			byKey[key] = grp
			groups = append(groups, grp)
		}
		grp.docs = append(grp.docs, e.doc)
	}
	return groups
}

// runGroup performs one engine call and maps result files back to the
// group's documents by path.
func (d *Dispatcher) runGroup(ctx context.Context, grp *group, serialize bool) map[string]Result {
	processor, err := d.Resolver.Resolve(ctx, grp.dir)
	if err != nil {
		if errors.Is(err, ErrNoProcessor) && d.Fallback != nil {
			log.Infof("falling back to bundled processor for %s: %s", grp.dir, err)
			processor = d.Fallback
		} else {
			log.Warningf("leaving %d document(s) unprocessed: %s", len(grp.docs), err)
			if d.Notify != nil {
				d.Notify(fmt.Sprintf("Cannot process documents in %s: %s.", grp.dir, err))
			}
			return nil
		}
	}

	req := Request{
		Dir:           grp.dir,
		RequireConfig: grp.requireConfig,
		Serialize:     serialize,
		Files:         make([]File, len(grp.docs)),
	}
	for i, doc := range grp.docs {
		req.Files[i] = File{Path: doc.Path, Text: doc.Text}
	}

	results, err := processor.Run(ctx, req)
	if err != nil {
		log.Errorf("engine run failed for %s: %s", grp.dir, err)
		out := make(map[string]Result, len(grp.docs))
		for _, doc := range grp.docs {
			out[doc.URI] = Result{
				Path: doc.Path,
				Messages: []Message{{
					Reason:   "Cannot process file",
					Severity: SeverityError,
					Cause:    err.Error(),
				}},
			}
		}
		return out
	}

	byPath := make(map[string]Result, len(results))
	for _, res := range results {
		byPath[res.Path] = res
	}

	out := make(map[string]Result, len(grp.docs))
	for _, doc := range grp.docs {
		if res, ok := byPath[doc.Path]; ok {
			out[doc.URI] = res
		}
	}
	return out
}
