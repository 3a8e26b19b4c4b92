// Package server provides the core server state shared by the protocol
// handlers: open documents, workspace roots, cached settings, and the
// processor wiring used to run document batches.
package server

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/engine"
	"github.com/proseflow/proseflow-lsp/internal/settings"
	"github.com/proseflow/proseflow-lsp/internal/workspace"
)

// DefaultProcessorName is the executable looked up under a workspace's
// .proseflow directory when no other name is configured.
const DefaultProcessorName = "processor"

// Server holds the state of the language server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// workspace tracks the registered workspace roots
	workspace *workspace.Registry

	// settings caches per-scope settings fetched from the client
	settings *settings.Cache

	// resolver locates the processor installed in a working directory
	resolver engine.Resolver

	// fallback serves working directories without an installed processor;
	// nil disables the fallback path
	fallback engine.Processor

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

// New creates a new server instance resolving workspace processors by name.
// fallback may be nil, in which case unresolvable groups stay unprocessed.
func New(processorName string, fallback engine.Processor) *Server {
	if processorName == "" {
		processorName = DefaultProcessorName
	}
	return &Server{
		documents: NewDocumentStore(),
		workspace: workspace.NewRegistry(),
		settings:  settings.NewCache(),
		resolver:  &engine.DirResolver{Name: processorName},
		fallback:  fallback,
	}
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shuttingDown = true
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Workspace returns the workspace root registry.
func (s *Server) Workspace() *workspace.Registry {
	return s.workspace
}

// Settings returns the settings cache.
func (s *Server) Settings() *settings.Cache {
	return s.settings
}

// Resolver returns the processor resolver.
func (s *Server) Resolver() engine.Resolver {
	return s.resolver
}

// Fallback returns the fallback processor, or nil when none is configured.
func (s *Server) Fallback() engine.Processor {
	return s.fallback
}

// SetClientCapabilities sets the client's capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCapabilities = capabilities
}

// GetClientCapabilities returns the client's capabilities.
func (s *Server) GetClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCapabilities
}

// SupportsScopedConfiguration returns true if the client answers
// workspace/configuration requests.
func (s *Server) SupportsScopedConfiguration() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.clientCapabilities == nil {
		return false
	}

	if s.clientCapabilities.Workspace == nil {
		return false
	}

	if s.clientCapabilities.Workspace.Configuration == nil {
		return false
	}

	return *s.clientCapabilities.Workspace.Configuration
}

// SupportsConfigurationRegistration returns true if the client accepts
// dynamic registration for configuration change notifications.
func (s *Server) SupportsConfigurationRegistration() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.clientCapabilities == nil {
		return false
	}

	if s.clientCapabilities.Workspace == nil {
		return false
	}

	if s.clientCapabilities.Workspace.DidChangeConfiguration == nil {
		return false
	}

	if s.clientCapabilities.Workspace.DidChangeConfiguration.DynamicRegistration == nil {
		return false
	}

	return *s.clientCapabilities.Workspace.DidChangeConfiguration.DynamicRegistration
}

// SupportsWorkspaceFolders returns true if the client manages workspace
// folders and sends change notifications for them.
func (s *Server) SupportsWorkspaceFolders() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.clientCapabilities == nil {
		return false
	}

	if s.clientCapabilities.Workspace == nil {
		return false
	}

	if s.clientCapabilities.Workspace.WorkspaceFolders == nil {
		return false
	}

	return *s.clientCapabilities.Workspace.WorkspaceFolders
}
