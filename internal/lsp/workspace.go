// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/server"
	"github.com/proseflow/proseflow-lsp/internal/settings"
)

// DidChangeConfiguration handles workspace configuration changes from the
// client. Configuration-capable clients get their scoped cache dropped and
// re-fetched lazily; for everyone else the notification itself carries the
// new settings, for example:
//
//	{
//	  "proseflow": {
//	    "requireConfig": true
//	  }
//	}
//
// Either way every open document is re-checked under the new settings.
func DidChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in DidChangeConfiguration")
		return nil
	}

	if srv.Settings().Scoped() {
		srv.Settings().Invalidate()
		log.Debugf("configuration changed, scoped settings invalidated")
	} else {
		srv.Settings().SetGlobal(settings.FromAny(configSectionOf(params.Settings)))
		log.Debugf("configuration changed, global settings replaced")
	}

	process(context, srv, srv.Documents().Snapshot())

	return nil
}

// configSectionOf digs this server's section out of the settings blob sent
// by clients without scoped configuration support.
func configSectionOf(raw any) any {
	settingsMap, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return settingsMap[configSection]
}

// DidChangeWorkspaceFolders handles changes to workspace folders. The root
// registry is updated and every open document is re-routed, since documents
// may now belong to a different root or to none at all.
func DidChangeWorkspaceFolders(context *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in DidChangeWorkspaceFolders")
		return nil
	}

	added := make([]string, 0, len(params.Event.Added))
	for _, folder := range params.Event.Added {
		log.Infof("workspace folder added: %s (%s)", folder.Name, folder.URI)
		added = append(added, folder.URI)
	}

	removed := make([]string, 0, len(params.Event.Removed))
	for _, folder := range params.Event.Removed {
		log.Infof("workspace folder removed: %s (%s)", folder.Name, folder.URI)
		removed = append(removed, folder.URI)
	}

	srv.Workspace().Remove(removed...)
	srv.Workspace().Add(added...)

	process(context, srv, srv.Documents().Snapshot())

	return nil
}

// DidChangeWatchedFiles handles file watcher notifications from the client.
// Edits to configuration or ignore files on disk change what the engine does
// with a buffer, so all open documents are re-checked.
func DidChangeWatchedFiles(context *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in DidChangeWatchedFiles")
		return nil
	}

	log.Debugf("%d watched file(s) changed", len(params.Changes))

	process(context, srv, srv.Documents().Snapshot())

	return nil
}
