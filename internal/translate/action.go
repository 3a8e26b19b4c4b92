package translate

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/document"
)

// Actions synthesizes quick fixes from the replacement hints riding the
// given diagnostics. text is the current content of the document at uri; the
// flagged span is read from it, not from the hint, so titles always show
// what the user actually has. Diagnostics without hints contribute nothing.
//
// The returned order is part of the contract: actions appear per diagnostic
// in diagnostic order, and per candidate in candidate order.
func Actions(uri protocol.DocumentUri, text string, diagnostics []protocol.Diagnostic) []protocol.CodeAction {
	var actions []protocol.CodeAction

	for _, diagnostic := range diagnostics {
		candidates, offered, ok := expectedFromData(diagnostic.Data)
		if !ok {
			continue
		}

		actual := document.Slice(text, diagnostic.Range)
		zeroWidth := diagnostic.Range.Start == diagnostic.Range.End

		before := len(actions)

		for _, replacement := range candidates {
			var title string
			switch {
			case zeroWidth:
				title = "Insert `" + replacement + "`"
			case replacement == "":
				title = "Remove `" + actual + "`"
			default:
				title = "Replace `" + actual + "` with `" + replacement + "`"
			}

			actions = append(actions, protocol.CodeAction{
				Title:       title,
				Kind:        stringPtr(string(protocol.CodeActionKindQuickFix)),
				Diagnostics: []protocol.Diagnostic{diagnostic},
				Edit: &protocol.WorkspaceEdit{
					Changes: map[protocol.DocumentUri][]protocol.TextEdit{
						uri: {{Range: diagnostic.Range, NewText: replacement}},
					},
				},
			})
		}

		if offered == 1 && len(actions) > before {
			preferred := true
			actions[len(actions)-1].IsPreferred = &preferred
		}
	}

	return actions
}

// stringPtr is a helper function to create a pointer to a string.
func stringPtr(s string) *string {
	return &s
}
