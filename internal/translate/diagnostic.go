package translate

import (
	"encoding/json"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/proseflow/proseflow-lsp/internal/engine"
)

// quickFixData rides protocol.Diagnostic.Data through the client and back.
// It must survive JSON serialization in both directions, so reading it goes
// through expectedFromData rather than a type assertion.
type quickFixData struct {
	Expected []string `json:"expected"`
}

// Diagnostic converts one engine message into a protocol diagnostic.
// defaultSource labels messages whose producer did not name itself.
func Diagnostic(msg engine.Message, defaultSource string) protocol.Diagnostic {
	severity := diagnosticSeverity(msg.Severity)

	diagnostic := protocol.Diagnostic{
		Range:    RangeForLocation(msg.Location),
		Severity: &severity,
		Message:  msg.Text(),
	}

	if msg.Rule != "" {
		diagnostic.Code = &protocol.IntegerOrString{Value: msg.Rule}
	}

	source := msg.Source
	if source == "" {
		source = defaultSource
	}
	if source != "" {
		diagnostic.Source = &source
	}

	if msg.URL != "" {
		diagnostic.CodeDescription = &protocol.CodeDescription{HRef: msg.URL}
	}

	if msg.Expected != nil {
		diagnostic.Data = quickFixData{Expected: msg.Expected}
	}

	return diagnostic
}

// Diagnostics converts a result's messages in the order the engine produced
// them.
func Diagnostics(messages []engine.Message, defaultSource string) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(messages))
	for _, msg := range messages {
		diagnostics = append(diagnostics, Diagnostic(msg, defaultSource))
	}
	return diagnostics
}

func diagnosticSeverity(s engine.Severity) protocol.DiagnosticSeverity {
	switch s {
	case engine.SeverityError:
		return protocol.DiagnosticSeverityError
	case engine.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

// expectedFromData recovers the replacement hints from a diagnostic's data
// slot. The data may be the typed value this package attached or the generic
// map a JSON round trip through the client turned it into; both decode the
// same way. Entries that are not strings are dropped from candidates but
// still count toward offered, which is what preference marking keys on.
func expectedFromData(data any) (candidates []string, offered int, ok bool) {
	if data == nil {
		return nil, 0, false
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, 0, false
	}

	var hints struct {
		Expected *[]json.RawMessage `json:"expected"`
	}
	if err := json.Unmarshal(raw, &hints); err != nil || hints.Expected == nil {
		return nil, 0, false
	}

	candidates = make([]string, 0, len(*hints.Expected))
	for _, entry := range *hints.Expected {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			candidates = append(candidates, s)
		}
	}

	return candidates, len(*hints.Expected), true
}
