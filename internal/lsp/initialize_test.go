package lsp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/prose"
	"github.com/proseflow/proseflow-lsp/internal/server"
)

// initializeParamsFromJSON builds params the way they arrive on the wire.
// Client capability structs nest anonymously in the protocol types, so this
// is also the only convenient way to construct them in tests.
func initializeParamsFromJSON(t *testing.T, raw string) *protocol.InitializeParams {
	t.Helper()

	var params protocol.InitializeParams
	require.NoError(t, json.Unmarshal([]byte(raw), &params))
	return &params
}

const fullClientParams = `{
	"processId": 1,
	"rootUri": "file:///workspaces/docs",
	"capabilities": {
		"workspace": {
			"configuration": true,
			"workspaceFolders": true,
			"didChangeConfiguration": {"dynamicRegistration": true}
		},
		"textDocument": {
			"publishDiagnostics": {"versionSupport": true}
		}
	},
	"workspaceFolders": [
		{"uri": "file:///workspaces/docs", "name": "docs"},
		{"uri": "file:///workspaces/docs/site", "name": "site"}
	]
}`

func TestInitialize_Capabilities(t *testing.T) {
	newTestServer(t, prose.New())
	ctx, _ := newTestContext()

	result, err := Initialize(ctx, initializeParamsFromJSON(t, fullClientParams))
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok, "Initialize should return an InitializeResult")
	caps := initResult.Capabilities

	syncOptions, ok := caps.TextDocumentSync.(protocol.TextDocumentSyncOptions)
	require.True(t, ok, "sync should be spelled out as options")
	require.NotNil(t, syncOptions.OpenClose)
	assert.True(t, *syncOptions.OpenClose)
	require.NotNil(t, syncOptions.Change)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *syncOptions.Change)

	actionOptions, ok := caps.CodeActionProvider.(*protocol.CodeActionOptions)
	require.True(t, ok, "code actions should declare their kinds")
	assert.Equal(t, []protocol.CodeActionKind{protocol.CodeActionKindQuickFix}, actionOptions.CodeActionKinds)
	require.NotNil(t, actionOptions.ResolveProvider)
	assert.True(t, *actionOptions.ResolveProvider)

	formatting, ok := caps.DocumentFormattingProvider.(*bool)
	require.True(t, ok)
	assert.True(t, *formatting)

	require.NotNil(t, caps.Workspace, "folder-capable client gets folder support")
	require.NotNil(t, caps.Workspace.WorkspaceFolders)
	require.NotNil(t, caps.Workspace.WorkspaceFolders.Supported)
	assert.True(t, *caps.Workspace.WorkspaceFolders.Supported)

	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, ServerName, initResult.ServerInfo.Name)
}

func TestInitialize_NoFolderSupportNoFolderCapability(t *testing.T) {
	newTestServer(t, prose.New())
	ctx, _ := newTestContext()

	params := initializeParamsFromJSON(t, `{
		"processId": 1,
		"rootUri": "file:///workspaces/docs",
		"capabilities": {}
	}`)

	result, err := Initialize(ctx, params)
	require.NoError(t, err)

	initResult := result.(protocol.InitializeResult)
	assert.Nil(t, initResult.Capabilities.Workspace)
}

func TestInitialize_SeedsRootsFromFolders(t *testing.T) {
	srv, _ := newTestServer(t, prose.New())
	ctx, _ := newTestContext()

	_, err := Initialize(ctx, initializeParamsFromJSON(t, fullClientParams))
	require.NoError(t, err)

	roots := srv.Workspace().Roots()
	assert.ElementsMatch(t, []string{
		"file:///workspaces/docs",
		"file:///workspaces/docs/site",
	}, roots, "folders win over rootUri")
}

func TestInitialize_FallsBackToRootURI(t *testing.T) {
	srv, _ := newTestServer(t, prose.New())
	ctx, _ := newTestContext()

	params := initializeParamsFromJSON(t, `{
		"processId": 1,
		"rootUri": "file:///workspaces/solo",
		"capabilities": {}
	}`)

	_, err := Initialize(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, []string{"file:///workspaces/solo"}, srv.Workspace().Roots())
}

func TestInitialize_RecordsScopedConfigurationSupport(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		scoped bool
	}{
		{
			"configuration-capable client",
			`{"processId": 1, "capabilities": {"workspace": {"configuration": true}}}`,
			true,
		},
		{
			"plain client",
			`{"processId": 1, "capabilities": {}}`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, prose.New())
			ctx, _ := newTestContext()

			_, err := Initialize(ctx, initializeParamsFromJSON(t, tt.raw))
			require.NoError(t, err)

			assert.Equal(t, tt.scoped, srv.Settings().Scoped())
		})
	}
}

func TestInitialized_RegistersForConfigurationChanges(t *testing.T) {
	srv, _ := newTestServer(t, prose.New())
	ctx, tc := newTestContext()

	_, err := Initialize(ctx, initializeParamsFromJSON(t, fullClientParams))
	require.NoError(t, err)
	require.True(t, srv.SupportsConfigurationRegistration())

	require.NoError(t, Initialized(ctx, &protocol.InitializedParams{}))

	assert.Contains(t, tc.calledMethods(), protocol.ServerClientRegisterCapability)
}

func TestInitialized_NoRegistrationWithoutSupport(t *testing.T) {
	newTestServer(t, prose.New())
	ctx, tc := newTestContext()

	_, err := Initialize(ctx, initializeParamsFromJSON(t, `{"processId": 1, "capabilities": {}}`))
	require.NoError(t, err)

	require.NoError(t, Initialized(ctx, &protocol.InitializedParams{}))

	assert.Empty(t, tc.calledMethods())
}

func TestShutdown_StopsProcessing(t *testing.T) {
	srv, dir := newTestServer(t, prose.New())
	ctx, tc := newTestContext()

	require.NoError(t, Shutdown(ctx))
	assert.True(t, srv.IsShuttingDown())

	process(ctx, srv, []server.Document{
		{URI: testDocURI(dir, "doc.md"), Text: "## hello", Version: 1},
	})
	assert.Empty(t, tc.published())
}
