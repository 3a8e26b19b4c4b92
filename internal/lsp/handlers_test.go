package lsp

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/engine"
	"github.com/proseflow/proseflow-lsp/internal/server"
	"github.com/proseflow/proseflow-lsp/internal/workspace"
)

type clientMessage struct {
	method string
	params any
}

// testContext captures the client-bound traffic of a test context.
type testContext struct {
	mu            sync.Mutex
	notifications []clientMessage
	calls         []clientMessage

	// answerConfiguration, when set, is returned for
	// workspace/configuration calls so tests can simulate a
	// configuration-capable client.
	answerConfiguration []any
}

func newTestContext() (*glsp.Context, *testContext) {
	tc := &testContext{}

	ctx := &glsp.Context{
		Notify: func(method string, params any) {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			tc.notifications = append(tc.notifications, clientMessage{method: method, params: params})
		},
		Call: func(method string, params any, result any) {
			tc.mu.Lock()
			tc.calls = append(tc.calls, clientMessage{method: method, params: params})
			answer := tc.answerConfiguration
			tc.mu.Unlock()

			if method == protocol.ServerWorkspaceConfiguration && answer != nil {
				if out, ok := result.(*[]any); ok {
					*out = answer
				}
			}
		},
	}

	return ctx, tc
}

func (tc *testContext) published() []*protocol.PublishDiagnosticsParams {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	var out []*protocol.PublishDiagnosticsParams
	for _, n := range tc.notifications {
		if n.method != protocol.ServerTextDocumentPublishDiagnostics {
			continue
		}
		if params, ok := n.params.(*protocol.PublishDiagnosticsParams); ok {
			out = append(out, params)
		}
	}
	return out
}

func (tc *testContext) calledMethods() []string {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	methods := make([]string, len(tc.calls))
	for i, c := range tc.calls {
		methods[i] = c.method
	}
	return methods
}

// newTestServer builds a server rooted at a fresh temporary directory and
// installs it for the handlers. fallback may be nil to exercise the
// missing-processor path.
func newTestServer(t *testing.T, fallback engine.Processor) (*server.Server, string) {
	t.Helper()

	dir := t.TempDir()
	srv := server.New("processor", fallback)
	srv.Workspace().SetRoots([]string{workspace.PathToURI(dir)})

	SetServer(srv)
	t.Cleanup(func() { SetServer(nil) })

	return srv, dir
}

func testDocURI(dir, name string) string {
	return workspace.PathToURI(filepath.Join(dir, name))
}

func TestConfigSectionOf(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want any
	}{
		{"section present", map[string]any{"proseflow": map[string]any{"requireConfig": true}}, map[string]any{"requireConfig": true}},
		{"section absent", map[string]any{"other": 1}, nil},
		{"not a map", "settings", nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := configSectionOf(tt.raw)
			if tt.want == nil {
				if got != nil {
					t.Errorf("configSectionOf = %v, want nil", got)
				}
				return
			}
			gotMap, ok := got.(map[string]any)
			if !ok {
				t.Fatalf("configSectionOf = %T, want map", got)
			}
			if gotMap["requireConfig"] != true {
				t.Errorf("section content lost: %v", gotMap)
			}
		})
	}
}
