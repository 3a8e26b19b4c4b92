// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/document"
	"github.com/proseflow/proseflow-lsp/internal/server"
)

// Formatting handles the textDocument/formatting request. The document runs
// through its processor with serialization forced on; if the serialized text
// differs from the buffer, one edit replaces the whole document. Unknown and
// unroutable documents format to nothing rather than erroring, and the
// client-side formatting options are ignored: layout belongs to the
// processor.
func Formatting(context *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in Formatting")
		return nil, nil
	}

	uri := string(params.TextDocument.URI)
	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Debugf("document not found for formatting: %s", uri)
		return nil, nil
	}

	snapshot := *doc

	results := runBatch(context, srv, []server.Document{snapshot}, true)

	result, ok := results[uri]
	if !ok || result.Output == nil {
		return nil, nil
	}

	if *result.Output == snapshot.Text {
		log.Debugf("%s is already formatted", uri)
		return nil, nil
	}

	edit := protocol.TextEdit{
		Range:   document.FullRange(snapshot.Text),
		NewText: *result.Output,
	}

	return []protocol.TextEdit{edit}, nil
}
