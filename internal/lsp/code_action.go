// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/server"
	"github.com/proseflow/proseflow-lsp/internal/translate"
)

// CodeAction handles the textDocument/codeAction request. Quick fixes are
// synthesized from the replacement hints riding the diagnostics the client
// hands back; the engine is not consulted again. A document that was never
// opened yields nil, which a known document with no fixable diagnostics does
// not: that one yields an empty list.
func CodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in CodeAction")
		return nil, nil
	}

	uri := string(params.TextDocument.URI)
	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Debugf("document not found for code action: %s", uri)
		return nil, nil
	}

	actions := translate.Actions(params.TextDocument.URI, doc.Text, params.Context.Diagnostics)
	if actions == nil {
		actions = []protocol.CodeAction{}
	}

	log.Debugf("returning %d code action(s) for %s", len(actions), uri)

	return actions, nil
}

// CodeActionResolve handles the codeAction/resolve request. Actions leave
// CodeAction fully formed, edit included, so resolution returns its argument
// unchanged.
func CodeActionResolve(context *glsp.Context, params *protocol.CodeAction) (*protocol.CodeAction, error) {
	return params, nil
}
