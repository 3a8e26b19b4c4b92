// Package translate converts the engine's result shapes into protocol shapes:
// locations to ranges, messages to diagnostics, replacement hints to quick
// fixes. Everything here is pure; protocol traffic happens elsewhere.
package translate

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/engine"
)

// RangeForLocation maps a possibly partial 1-based engine location onto a
// 0-based protocol range. A location with only one valid endpoint collapses
// to a zero-width range at that endpoint; anything less addresses the start
// of the document.
func RangeForLocation(loc *engine.Location) protocol.Range {
	if loc != nil {
		start, startOK := position(loc.Start)
		end, endOK := position(loc.End)

		switch {
		case startOK && endOK:
			return protocol.Range{Start: start, End: end}
		case startOK:
			return protocol.Range{Start: start, End: start}
		case endOK:
			return protocol.Range{Start: end, End: end}
		}
	}

	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   protocol.Position{Line: 0, Character: 0},
	}
}

func position(p engine.Point) (protocol.Position, bool) {
	if !p.Valid() {
		return protocol.Position{}, false
	}

	return protocol.Position{
		Line:      protocol.UInteger(p.Line - 1),
		Character: protocol.UInteger(p.Column - 1),
	}, true
}
