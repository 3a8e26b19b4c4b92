// Package lsp implements LSP protocol handlers.
package lsp

import (
	"context"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/engine"
	"github.com/proseflow/proseflow-lsp/internal/server"
	"github.com/proseflow/proseflow-lsp/internal/settings"
	"github.com/proseflow/proseflow-lsp/internal/translate"
	"github.com/proseflow/proseflow-lsp/internal/workspace"
)

// DefaultSource labels diagnostics whose message does not carry a source of
// its own.
const DefaultSource = "proseflow"

// configSection is the configuration section requested from the client.
const configSection = "proseflow"

// process runs one check cycle over the given document snapshots and
// publishes one diagnostics batch per document. The version published for a
// document is the one captured in its snapshot, taken before dispatch; if a
// newer version or a close overtakes the dispatch, the result is discarded
// instead of being attributed to text it was not computed from.
func process(glspCtx *glsp.Context, srv *server.Server, docs []server.Document) {
	if srv.IsShuttingDown() || len(docs) == 0 {
		return
	}

	results := runBatch(glspCtx, srv, docs, false)

	for _, doc := range docs {
		result, ok := results[doc.URI]
		if !ok {
			// Dropped, unroutable, or unmatched: nothing to publish
			// for this cycle.
			continue
		}

		current, open := srv.Documents().Version(doc.URI)
		if !open || current != doc.Version {
			log.Debugf("discarding stale diagnostics for %s (version %d)", doc.URI, doc.Version)
			continue
		}

		publish(glspCtx, doc.URI, doc.Version, translate.Diagnostics(result.Messages, DefaultSource))
	}
}

// runBatch resolves, groups, and dispatches one batch of documents, and
// returns the merged results keyed by URI. The engine contract has no
// cancellation; superseded runs are discarded by version on arrival instead.
func runBatch(glspCtx *glsp.Context, srv *server.Server, docs []server.Document, serialize bool) map[string]engine.Result {
	fetch := configFetcher(glspCtx)

	dispatcher := &engine.Dispatcher{
		Resolver: srv.Resolver(),
		Fallback: srv.Fallback(),
		ResolveDir: func(ctx context.Context, uri string) (string, bool) {
			return srv.Workspace().WorkingDir(uri)
		},
		RequireConfig: func(ctx context.Context, uri string) bool {
			return srv.Settings().Get(ctx, uri, fetch).RequireConfig
		},
		Notify: func(text string) {
			showProcessorWarning(glspCtx, text)
		},
	}

	return dispatcher.Run(context.Background(), dispatchDocs(docs), serialize)
}

// dispatchDocs converts document snapshots into engine inputs. A URI with no
// filesystem path keeps an empty path; such documents never resolve to a
// working directory and fall out of the batch during resolution.
func dispatchDocs(docs []server.Document) []engine.Doc {
	inputs := make([]engine.Doc, len(docs))
	for i, doc := range docs {
		path, err := workspace.URIToPath(doc.URI)
		if err != nil {
			path = ""
		}
		inputs[i] = engine.Doc{URI: doc.URI, Path: path, Text: doc.Text}
	}
	return inputs
}

// publish sends one diagnostics notification for a document, tagged with the
// version the diagnostics were computed against.
func publish(glspCtx *glsp.Context, uri string, version int32, diagnostics []protocol.Diagnostic) {
	if glspCtx == nil || glspCtx.Notify == nil {
		log.Warningf("cannot publish diagnostics for %s without a connection", uri)
		return
	}

	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	tagged := protocol.UInteger(version)
	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     &tagged,
		Diagnostics: diagnostics,
	}

	log.Debugf("publishing %d diagnostic(s) for %s (version %d)", len(diagnostics), uri, version)

	glspCtx.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// showProcessorWarning asks the client to put a processor problem in front
// of the user. Sent as a request so clients may attach actions; the answer
// is not used.
func showProcessorWarning(glspCtx *glsp.Context, text string) {
	if glspCtx == nil || glspCtx.Call == nil {
		log.Warningf("cannot reach client: %s", text)
		return
	}

	params := protocol.ShowMessageRequestParams{
		Type:    protocol.MessageTypeWarning,
		Message: text,
	}
	glspCtx.Call(protocol.ServerWindowShowMessageRequest, params, nil)
}

// configFetcher builds a settings fetcher that asks the client for this
// server's configuration section scoped to one document. The protocol layer
// swallows transport errors, so an answer with no items at all counts as a
// failed fetch and stays uncached; an explicit null answer is a real "no
// settings" and caches the defaults.
func configFetcher(glspCtx *glsp.Context) settings.Fetcher {
	return func(ctx context.Context, scope string) (settings.Settings, error) {
		if glspCtx == nil || glspCtx.Call == nil {
			return settings.Settings{}, errors.New("no client connection for configuration")
		}

		scopeURI := protocol.URI(scope)
		section := configSection
		params := protocol.ConfigurationParams{
			Items: []protocol.ConfigurationItem{{
				ScopeURI: &scopeURI,
				Section:  &section,
			}},
		}

		var results []any
		glspCtx.Call(protocol.ServerWorkspaceConfiguration, params, &results)
		if len(results) == 0 {
			return settings.Settings{}, errors.New("configuration request yielded no answer")
		}

		return settings.FromAny(results[0]), nil
	}
}
