// Package prose is the bundled markdown prose pipeline. It serves workspaces
// that have no processor of their own: a small set of line-oriented rules
// over in-memory text, plus a serializer that writes the text back in
// normalized form.
package prose

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/commonlog"

	"github.com/proseflow/proseflow-lsp/internal/engine"
)

var log = commonlog.GetLogger("proseflow.prose")

// Rule identifiers, as they appear in diagnostics codes and rc toggles.
const (
	ruleHeadingSpace   = "heading-space"
	ruleHeadingCapital = "heading-capitalization"
	ruleTrailingSpace  = "trailing-space"
	ruleFinalNewline   = "final-newline"
)

// sourceLabel names this pipeline in the messages it produces.
const sourceLabel = "prose"

var headingPattern = regexp.MustCompile(`^(#{1,6})([ \t]+)(.*)$`)

var trailingPattern = regexp.MustCompile(`[ \t]+$`)

// Processor implements engine.Processor with the bundled rules.
type Processor struct{}

// New creates the bundled processor.
func New() *Processor {
	return &Processor{}
}

// Run lints every file of the request in memory. Files matched by the
// working directory's ignore list are skipped, as are files without an rc
// file when the request demands one. A file with an unparseable rc still
// gets a result: a single fatal message naming the broken file.
func (p *Processor) Run(ctx context.Context, req engine.Request) ([]engine.Result, error) {
	ignore := loadIgnore(req.Dir)

	results := make([]engine.Result, 0, len(req.Files))

	for _, file := range req.Files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if rel, err := filepath.Rel(req.Dir, file.Path); err == nil {
			if ignore.Match(filepath.ToSlash(rel)) {
				log.Debugf("%s is ignored", file.Path)
				continue
			}
		}

		cfg := Config{}
		rcPath, found := findConfig(filepath.Dir(file.Path), req.Dir)
		if found {
			loaded, err := loadConfig(rcPath)
			if err != nil {
				results = append(results, engine.Result{
					Path: file.Path,
					Messages: []engine.Message{{
						Reason:   fmt.Sprintf("Cannot parse configuration file %s", rcPath),
						Severity: engine.SeverityError,
						Source:   sourceLabel,
						Cause:    err.Error(),
					}},
				})
				continue
			}
			cfg = loaded
		} else if req.RequireConfig {
			log.Debugf("%s has no rc file, skipping", file.Path)
			continue
		}

		result := engine.Result{
			Path:     file.Path,
			Messages: lint(file.Text, cfg),
		}
		if req.Serialize {
			output := serialize(file.Text, cfg)
			result.Output = &output
		}

		results = append(results, result)
	}

	return results, nil
}

// lint runs the enabled rules over text and returns their messages in line
// order.
func lint(text string, cfg Config) []engine.Message {
	var messages []engine.Message

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lineNo := i + 1

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			hashes, gap, title := m[1], m[2], m[3]

			if cfg.enabled(ruleHeadingSpace) && gap != " " && title != "" {
				start := utf16Len(hashes) + 1
				messages = append(messages, engine.Message{
					Reason:   "Expected 1 space between hashes and heading text",
					Location: span(lineNo, start, start+utf16Len(gap)),
					Severity: engine.SeverityWarning,
					Rule:     ruleHeadingSpace,
					Source:   sourceLabel,
					Expected: []string{" "},
				})
			}

			if cfg.enabled(ruleHeadingCapital) && title != "" {
				word := firstWord(title)
				first, _ := utf8.DecodeRuneInString(word)
				if unicode.IsLower(first) {
					start := utf16Len(hashes) + utf16Len(gap) + 1
					messages = append(messages, engine.Message{
						Reason:   fmt.Sprintf("First word %q in a heading should be capitalized", word),
						Location: span(lineNo, start, start+utf16Len(word)),
						Severity: engine.SeverityWarning,
						Rule:     ruleHeadingCapital,
						Source:   sourceLabel,
						Expected: []string{capitalize(word)},
					})
				}
			}
		}

		if cfg.enabled(ruleTrailingSpace) {
			if loc := trailingPattern.FindStringIndex(line); loc != nil {
				start := utf16Len(line[:loc[0]]) + 1
				messages = append(messages, engine.Message{
					Reason:   "Unexpected trailing whitespace",
					Location: span(lineNo, start, start+utf16Len(line[loc[0]:])),
					Severity: engine.SeverityWarning,
					Rule:     ruleTrailingSpace,
					Source:   sourceLabel,
					Expected: []string{""},
				})
			}
		}
	}

	if cfg.enabled(ruleFinalNewline) && text != "" && !strings.HasSuffix(text, "\n") {
		last := lines[len(lines)-1]
		end := utf16Len(last) + 1
		messages = append(messages, engine.Message{
			Reason:   "Missing newline character at end of file",
			Location: span(len(lines), end, end),
			Severity: engine.SeverityWarning,
			Rule:     ruleFinalNewline,
			Source:   sourceLabel,
			Expected: []string{"\n"},
		})
	}

	return messages
}

// serialize writes text back in normalized form. It is a fixed point:
// serializing its own output changes nothing. Disabled rules leave their
// aspect of the text alone; capitalization is a suggestion, never applied
// here.
func serialize(text string, cfg Config) string {
	if text == "" {
		return ""
	}

	hadFinalNewline := strings.HasSuffix(text, "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if cfg.enabled(ruleHeadingSpace) {
			if m := headingPattern.FindStringSubmatch(line); m != nil && m[3] != "" {
				line = m[1] + " " + m[3]
			}
		}
		if cfg.enabled(ruleTrailingSpace) {
			line = trailingPattern.ReplaceAllString(line, "")
		}
		lines[i] = line
	}

	out := strings.Join(lines, "\n")
	if hadFinalNewline || cfg.enabled(ruleFinalNewline) {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
	}

	return out
}

func span(line, startCol, endCol int) *engine.Location {
	return &engine.Location{
		Start: engine.Point{Line: line, Column: startCol},
		End:   engine.Point{Line: line, Column: endCol},
	}
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	upper := unicode.ToUpper(r)
	if upper == r {
		return word
	}
	return string(upper) + word[size:]
}

// utf16Len counts the UTF-16 code units of s, the unit the protocol measures
// columns in.
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}
