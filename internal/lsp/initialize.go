// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/server"
	"github.com/proseflow/proseflow-lsp/internal/workspace"
)

var (
	// serverInstance holds the global server instance
	// This is set by SetServer and accessed by handlers
	serverInstance any
)

// SetServer sets the global server instance for handlers to access.
func SetServer(srv any) {
	serverInstance = srv
}

// ServerName identifies this server to clients.
const ServerName = "proseflow-lsp"

const serverVersion = "0.1.0"

// Initialize handles the LSP initialize request. It records the client's
// capabilities, seeds the workspace registry from the client's folders, and
// reports what the server can do: full-document sync, quick-fix code actions
// with resolve support, and full-document formatting.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Warningf("server instance not available in Initialize")
		return nil, nil
	}

	srv.SetClientCapabilities(&params.Capabilities)
	srv.Settings().SetScoped(srv.SupportsScopedConfiguration())
	srv.Workspace().SetRoots(initialRoots(params))

	changeKind := protocol.TextDocumentSyncKindFull
	trueVal := true

	capabilities := protocol.ServerCapabilities{
		// Text document synchronization; the engine works on whole
		// buffers, so sync is full-document
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
		},

		// Quick fixes synthesized from replacement hints
		CodeActionProvider: &protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{
				protocol.CodeActionKindQuickFix,
			},
			ResolveProvider: &[]bool{true}[0],
		},

		// Full-document formatting through the processing pipeline
		DocumentFormattingProvider: &[]bool{true}[0],
	}

	if srv.SupportsWorkspaceFolders() {
		capabilities.Workspace = &protocol.ServerCapabilitiesWorkspace{
			WorkspaceFolders: &protocol.WorkspaceFoldersServerCapabilities{
				Supported:           &trueVal,
				ChangeNotifications: &protocol.BoolOrString{Value: true},
			},
		}
	}

	version := serverVersion
	result := protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &version,
		},
	}

	return result, nil
}

// initialRoots collects the client's workspace roots in preference order:
// explicit folders, then the root URI, then the deprecated root path.
func initialRoots(params *protocol.InitializeParams) []string {
	if len(params.WorkspaceFolders) > 0 {
		roots := make([]string, len(params.WorkspaceFolders))
		for i, folder := range params.WorkspaceFolders {
			roots[i] = folder.URI
		}
		return roots
	}

	if params.RootURI != nil && *params.RootURI != "" {
		return []string{*params.RootURI}
	}

	if params.RootPath != nil && *params.RootPath != "" {
		return []string{workspace.PathToURI(*params.RootPath)}
	}

	return nil
}

// Initialized handles the initialized notification from the client. Clients
// that accept dynamic registration are registered for configuration change
// notifications, so the settings cache learns about edits to client-side
// settings.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		return nil
	}

	if srv.SupportsConfigurationRegistration() && context != nil && context.Call != nil {
		registration := protocol.RegistrationParams{
			Registrations: []protocol.Registration{{
				ID:     "proseflow-configuration",
				Method: protocol.MethodWorkspaceDidChangeConfiguration,
			}},
		}
		context.Call(protocol.ServerClientRegisterCapability, registration, nil)
	}

	return nil
}

// Shutdown handles the shutdown request.
// The client sends this to ask the server to shut down gracefully.
func Shutdown(context *glsp.Context) error {
	if srv, ok := serverInstance.(*server.Server); ok && srv != nil {
		srv.SetShuttingDown()
	}

	return nil
}
