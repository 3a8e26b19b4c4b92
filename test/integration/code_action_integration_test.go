//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"testing"

	"github.com/proseflow/proseflow-lsp/internal/lsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// TestCodeActionQuickFixLoop tests the complete quick fix loop: diagnose,
// request actions, apply the edit, and watch the markers clear
func TestCodeActionQuickFixLoop(t *testing.T) {
	_, dir := setupTestServer(t)
	ctx, c := newClientContext()

	uri := docURI(dir, "loop.md")
	open(t, ctx, uri, "## hello\n", 1)

	batches := c.batches()
	if len(batches) != 1 || len(batches[0].Diagnostics) != 1 {
		t.Fatalf("expected one batch with one diagnostic, got %v", batches)
	}

	// 1. The client serializes diagnostics and hands them back in the
	// code action request.
	raw, err := json.Marshal(batches[0].Diagnostics)
	if err != nil {
		t.Fatalf("marshaling diagnostics: %v", err)
	}
	var returned []protocol.Diagnostic
	if err := json.Unmarshal(raw, &returned); err != nil {
		t.Fatalf("unmarshaling diagnostics: %v", err)
	}

	result, err := lsp.CodeAction(ctx, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        returned[0].Range,
		Context:      protocol.CodeActionContext{Diagnostics: returned},
	})
	if err != nil {
		t.Fatalf("CodeAction failed: %v", err)
	}

	actions, ok := result.([]protocol.CodeAction)
	if !ok {
		t.Fatalf("CodeAction returned wrong type: %T", result)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions, want 1", len(actions))
	}

	action := actions[0]
	if action.Title != "Replace `hello` with `Hello`" {
		t.Errorf("action title = %q", action.Title)
	}
	if action.IsPreferred == nil || !*action.IsPreferred {
		t.Error("sole candidate should be preferred")
	}
	if action.Edit == nil {
		t.Fatal("action should carry a workspace edit")
	}

	edits := action.Edit.Changes[uri]
	if len(edits) != 1 {
		t.Fatalf("got %d edits, want 1", len(edits))
	}

	// 2. Apply the edit the way a client would and send the result back.
	fixed := applyEdit("## hello\n", edits[0])
	if fixed != "## Hello\n" {
		t.Fatalf("applied edit produced %q, want %q", fixed, "## Hello\n")
	}

	changeParams := &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEventWhole{Text: fixed},
		},
	}
	if err := lsp.DidChange(ctx, changeParams); err != nil {
		t.Fatalf("DidChange failed: %v", err)
	}

	// 3. The fix clears the markers.
	batches = c.batches()
	final := batches[len(batches)-1]
	if len(final.Diagnostics) != 0 {
		t.Errorf("markers not cleared: %d diagnostics remain", len(final.Diagnostics))
	}
}

// TestCodeActionUnknownDocument tests that actions for unopened documents
// yield a null result
func TestCodeActionUnknownDocument(t *testing.T) {
	_, dir := setupTestServer(t)
	ctx, _ := newClientContext()

	result, err := lsp.CodeAction(ctx, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI(dir, "ghost.md")},
	})
	if err != nil {
		t.Fatalf("CodeAction failed: %v", err)
	}
	if result != nil {
		t.Errorf("got %v, want nil result", result)
	}
}

// applyEdit applies a single-line replacement edit to text. Good enough for
// the edits these tests produce.
func applyEdit(text string, edit protocol.TextEdit) string {
	lines := splitAfterNewlines(text)
	line := lines[edit.Range.Start.Line]

	start := int(edit.Range.Start.Character)
	end := int(edit.Range.End.Character)
	lines[edit.Range.Start.Line] = line[:start] + edit.NewText + line[end:]

	out := ""
	for _, l := range lines {
		out += l
	}
	return out
}

func splitAfterNewlines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}
