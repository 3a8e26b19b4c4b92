// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/tliron/commonlog"
)

// This package contains all LSP request and notification handlers:
// - Initialize / Initialized / Shutdown
// - textDocument/didOpen, didChange, didClose
// - workspace/didChangeConfiguration, didChangeWorkspaceFolders,
//   didChangeWatchedFiles
// - textDocument/codeAction, codeAction/resolve
// - textDocument/formatting
// plus the diagnostics publisher driving textDocument/publishDiagnostics.

var log = commonlog.GetLogger("proseflow.lsp")
