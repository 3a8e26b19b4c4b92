// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/document"
	"github.com/proseflow/proseflow-lsp/internal/server"
)

// DidOpen handles the textDocument/didOpen notification.
// The document is stored and checked right away.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in DidOpen")
		return nil
	}

	uri := string(params.TextDocument.URI)
	doc := &server.Document{
		URI:        uri,
		Text:       params.TextDocument.Text,
		Version:    params.TextDocument.Version,
		LanguageID: params.TextDocument.LanguageID,
	}
	srv.Documents().Set(uri, doc)

	log.Debugf("document opened: %s (version %d, language %s, %d bytes)",
		uri, doc.Version, doc.LanguageID, len(doc.Text))

	process(context, srv, []server.Document{*doc})

	return nil
}

// DidChange handles the textDocument/didChange notification.
// Sync is negotiated as full-document, but incremental changes are applied
// too for clients that send them anyway.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in DidChange")
		return nil
	}

	uri := string(params.TextDocument.URI)
	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Warningf("document not found for didChange: %s", uri)
		return nil
	}

	newText := doc.Text

	for i, changeInterface := range params.ContentChanges {
		switch change := changeInterface.(type) {
		case protocol.TextDocumentContentChangeEvent:
			updatedText, err := document.ApplyContentChange(newText, change)
			if err != nil {
				log.Errorf("cannot apply change %d/%d to %s: %s",
					i+1, len(params.ContentChanges), uri, err)
				// Continue with unchanged text to avoid corruption
				continue
			}
			newText = updatedText
		case protocol.TextDocumentContentChangeEventWhole:
			newText = change.Text
		default:
			log.Warningf("invalid content change type at index %d for %s", i, uri)
		}
	}

	updatedDoc := &server.Document{
		URI:        uri,
		Text:       newText,
		Version:    params.TextDocument.Version,
		LanguageID: doc.LanguageID,
	}
	srv.Documents().Set(uri, updatedDoc)

	log.Debugf("document changed: %s (version %d)", uri, updatedDoc.Version)

	process(context, srv, []server.Document{*updatedDoc})

	return nil
}

// DidClose handles the textDocument/didClose notification. The editor's
// markers for the document are cleared and its settings scope is evicted, so
// a reopen starts fresh.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in DidClose")
		return nil
	}

	uri := string(params.TextDocument.URI)
	doc, exists := srv.Documents().Get(uri)
	if !exists {
		return nil
	}

	srv.Documents().Delete(uri)
	srv.Settings().Evict(uri)

	log.Debugf("document closed: %s", uri)

	publish(context, uri, doc.Version, nil)

	return nil
}
