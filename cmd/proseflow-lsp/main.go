package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/proseflow/proseflow-lsp/internal/engine"
	"github.com/proseflow/proseflow-lsp/internal/lsp"
	"github.com/proseflow/proseflow-lsp/internal/prose"
	"github.com/proseflow/proseflow-lsp/internal/server"
)

const (
	version = "0.1.0"
)

var (
	tcpMode       bool
	tcpPort       int
	logLevel      string
	logFile       string
	processorName string
	noFallback    bool
)

func init() {
	// Command-line flags
	flag.BoolVar(&tcpMode, "tcp", false, "Run server in TCP mode (for debugging)")
	flag.IntVar(&tcpPort, "port", 8765, "TCP port to listen on (used with -tcp)")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (default: stderr)")
	flag.StringVar(&processorName, "processor", server.DefaultProcessorName,
		"Name of the processor executable looked up under <root>/.proseflow")
	flag.BoolVar(&noFallback, "no-fallback", false,
		"Disable the bundled prose processor for roots without an installed one")
	flag.Usage = usage
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s version %s\n\n", lsp.ServerName, version)
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", lsp.ServerName)
	fmt.Fprintf(os.Stderr, "Language server for prose processing pipelines\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	// Print version if requested
	if flag.NArg() > 0 && flag.Arg(0) == "version" {
		fmt.Printf("%s version %s\n", lsp.ServerName, version)
		os.Exit(0)
	}

	setupLogging()

	fmt.Fprintf(os.Stderr, "%s version %s starting...\n", lsp.ServerName, version)
	if tcpMode {
		fmt.Fprintf(os.Stderr, "Transport: TCP (port %d)\n", tcpPort)
	} else {
		fmt.Fprintf(os.Stderr, "Transport: STDIO\n")
	}

	// Initialize server state
	var fallback engine.Processor
	if !noFallback {
		fallback = prose.New()
	}
	srv := server.New(processorName, fallback)

	// Create GLSP handler
	handler := protocol.Handler{
		Initialize:  lsp.Initialize,
		Initialized: lsp.Initialized,
		Shutdown:    lsp.Shutdown,
		SetTrace:    func(context *glsp.Context, params *protocol.SetTraceParams) error { return nil },
		Exit: func(context *glsp.Context) error {
			if srv.IsShuttingDown() {
				os.Exit(0)
			}
			os.Exit(1)
			return nil
		},

		TextDocumentDidOpen:   lsp.DidOpen,
		TextDocumentDidChange: lsp.DidChange,
		TextDocumentDidClose:  lsp.DidClose,

		WorkspaceDidChangeConfiguration:    lsp.DidChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: lsp.DidChangeWorkspaceFolders,
		WorkspaceDidChangeWatchedFiles:     lsp.DidChangeWatchedFiles,

		TextDocumentCodeAction: lsp.CodeAction,
		CodeActionResolve:      lsp.CodeActionResolve,
		TextDocumentFormatting: lsp.Formatting,
	}

	// Create GLSP server
	glspServer := glspserver.NewServer(&handler, lsp.ServerName, logLevel == "debug")

	// Store our server instance for handler access
	lsp.SetServer(srv)

	// Start server with appropriate transport
	if tcpMode {
		if err := glspServer.RunTCP(fmt.Sprintf("127.0.0.1:%d", tcpPort)); err != nil {
			fmt.Fprintf(os.Stderr, "TCP server error: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := glspServer.RunStdio(); err != nil {
			fmt.Fprintf(os.Stderr, "STDIO server error: %v\n", err)
			os.Exit(1)
		}
	}
}

// setupLogging configures the logging backend from the command-line flags.
func setupLogging() {
	verbosity := 0
	switch logLevel {
	case "debug":
		verbosity = 2
	case "info":
		verbosity = 1
	}

	var path *string
	if logFile != "" {
		path = &logFile
	}

	commonlog.Configure(verbosity, path)
}
