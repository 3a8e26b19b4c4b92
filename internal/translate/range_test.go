package translate

import (
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/engine"
)

func TestRangeForLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  *engine.Location
		want protocol.Range
	}{
		{
			name: "nil location addresses document start",
			loc:  nil,
			want: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 0},
			},
		},
		{
			name: "both endpoints valid",
			loc: &engine.Location{
				Start: engine.Point{Line: 2, Column: 4},
				End:   engine.Point{Line: 3, Column: 1},
			},
			want: protocol.Range{
				Start: protocol.Position{Line: 1, Character: 3},
				End:   protocol.Position{Line: 2, Character: 0},
			},
		},
		{
			name: "valid start only collapses to start",
			loc: &engine.Location{
				Start: engine.Point{Line: 5, Column: 2},
			},
			want: protocol.Range{
				Start: protocol.Position{Line: 4, Character: 1},
				End:   protocol.Position{Line: 4, Character: 1},
			},
		},
		{
			name: "valid end only collapses to end",
			loc: &engine.Location{
				End: engine.Point{Line: 7, Column: 3},
			},
			want: protocol.Range{
				Start: protocol.Position{Line: 6, Character: 2},
				End:   protocol.Position{Line: 6, Character: 2},
			},
		},
		{
			name: "partial start point is not valid",
			loc: &engine.Location{
				Start: engine.Point{Line: 4},
				End:   engine.Point{Line: 4, Column: 6},
			},
			want: protocol.Range{
				Start: protocol.Position{Line: 3, Character: 5},
				End:   protocol.Position{Line: 3, Character: 5},
			},
		},
		{
			name: "neither endpoint valid",
			loc: &engine.Location{
				Start: engine.Point{Line: 9},
				End:   engine.Point{Column: 9},
			},
			want: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 0},
			},
		},
		{
			name: "first line first column maps to zero zero",
			loc: &engine.Location{
				Start: engine.Point{Line: 1, Column: 1},
				End:   engine.Point{Line: 1, Column: 1},
			},
			want: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RangeForLocation(tt.loc)
			if got != tt.want {
				t.Errorf("RangeForLocation() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
