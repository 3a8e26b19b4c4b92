// Package engine defines the contract between the language server and the
// document-processing pipelines that do the actual work: the in-memory files
// handed to a run, the per-file results coming back, and the structured
// messages those results carry.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// File is one in-memory document handed to a processing run. Path is the
// absolute filesystem path derived from the document URI; the content on disk
// is never consulted.
type File struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Result is the outcome of a run for a single file. Output is the serialized
// text and is only populated when the run asked for serialization.
type Result struct {
	Path     string    `json:"path"`
	Output   *string   `json:"output,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// Point is a 1-based line/column position as produced by processors. A zero
// value on either field means that coordinate is absent.
type Point struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// Valid reports whether both coordinates are present and usable.
func (p Point) Valid() bool {
	return p.Line >= 1 && p.Column >= 1
}

// Location is a possibly partial span in a source file. Either endpoint may
// be absent or invalid; consumers must not assume both are usable.
type Location struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Severity classifies a message. The zero value is deliberate: a message
// whose originator never said whether it is fatal stays informational.
type Severity int

const (
	// SeverityInfo is the unset state: the processor did not mark the
	// message as fatal or non-fatal.
	SeverityInfo Severity = iota
	// SeverityWarning corresponds to an explicit "not fatal" marking.
	SeverityWarning
	// SeverityError corresponds to an explicit "fatal" marking.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Message is one structured note a processor attached to a file.
type Message struct {
	// Reason is the primary human-readable text.
	Reason string
	// Location is where the message applies, when known.
	Location *Location
	// Severity carries the tri-state fatal marking.
	Severity Severity
	// Rule identifies the triggering rule within its source, if any.
	Rule string
	// Source names the plugin or subsystem that produced the message.
	Source string
	// URL links to documentation for the rule, if any.
	URL string
	// Expected lists replacement candidates for the flagged span. An empty
	// string proposes deletion; nil means no candidates were offered.
	Expected []string
	// Note is supplemental long-form text.
	Note string
	// Cause is the textual trace of a nested failure, when the message
	// wraps one.
	Cause string
}

// Text renders the full diagnostic text: the reason, then the cause trace,
// then the note, each on its own line.
func (m Message) Text() string {
	text := m.Reason
	if m.Cause != "" {
		text += "\n" + m.Cause
	}
	if m.Note != "" {
		text += "\n" + m.Note
	}
	return text
}

// messageWire is the JSON shape messages travel in. The fatal field keeps
// its three states: true, false, and null/absent.
type messageWire struct {
	Reason   string    `json:"reason"`
	Position *Location `json:"position,omitempty"`
	Fatal    *bool     `json:"fatal"`
	RuleID   string    `json:"ruleId,omitempty"`
	Source   string    `json:"source,omitempty"`
	URL      string    `json:"url,omitempty"`
	Expected []string  `json:"expected,omitempty"`
	Note     string    `json:"note,omitempty"`
	Cause    string    `json:"cause,omitempty"`
}

// MarshalJSON encodes the message with Severity folded back into the
// nullable fatal field.
func (m Message) MarshalJSON() ([]byte, error) {
	wire := messageWire{
		Reason:   m.Reason,
		Position: m.Location,
		RuleID:   m.Rule,
		Source:   m.Source,
		URL:      m.URL,
		Expected: m.Expected,
		Note:     m.Note,
		Cause:    m.Cause,
	}
	switch m.Severity {
	case SeverityError:
		t := true
		wire.Fatal = &t
	case SeverityWarning:
		f := false
		wire.Fatal = &f
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the wire shape, distinguishing fatal true, false,
// and null/absent.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&wire); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	m.Reason = wire.Reason
	m.Location = wire.Position
	m.Rule = wire.RuleID
	m.Source = wire.Source
	m.URL = wire.URL
	m.Expected = wire.Expected
	m.Note = wire.Note
	m.Cause = wire.Cause

	switch {
	case wire.Fatal == nil:
		m.Severity = SeverityInfo
	case *wire.Fatal:
		m.Severity = SeverityError
	default:
		m.Severity = SeverityWarning
	}

	return nil
}
