// Package document provides text geometry over protocol positions.
package document

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ApplyContentChange applies a TextDocumentContentChangeEvent to the given text
// and returns the updated text. This handles LSP's UTF-16 based positions.
func ApplyContentChange(text string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		// Whole-document replacement
		return change.Text, nil
	}

	lines := strings.Split(text, "\n")

	startLine := int(change.Range.Start.Line)
	startChar := int(change.Range.Start.Character)
	endLine := int(change.Range.End.Line)
	endChar := int(change.Range.End.Character)

	if startLine < 0 || startLine >= len(lines) {
		return "", fmt.Errorf("start line %d out of range (0-%d)", startLine, len(lines)-1)
	}

	if endLine < 0 || endLine >= len(lines) {
		return "", fmt.Errorf("end line %d out of range (0-%d)", endLine, len(lines)-1)
	}

	if startLine > endLine {
		return "", fmt.Errorf("start line %d after end line %d", startLine, endLine)
	}

	startByteOffset, err := utf16CharOffsetToByteOffset(lines[startLine], startChar)
	if err != nil {
		return "", fmt.Errorf("invalid start position: %w", err)
	}

	endByteOffset, err := utf16CharOffsetToByteOffset(lines[endLine], endChar)
	if err != nil {
		return "", fmt.Errorf("invalid end position: %w", err)
	}

	var result strings.Builder

	if startLine == endLine {
		before := lines[startLine][:startByteOffset]
		after := lines[startLine][endByteOffset:]
		newLine := before + change.Text + after

		for i := 0; i < startLine; i++ {
			result.WriteString(lines[i])
			result.WriteString("\n")
		}

		result.WriteString(newLine)

		for i := startLine + 1; i < len(lines); i++ {
			result.WriteString("\n")
			result.WriteString(lines[i])
		}
	} else {
		before := lines[startLine][:startByteOffset]
		after := lines[endLine][endByteOffset:]

		for i := 0; i < startLine; i++ {
			result.WriteString(lines[i])
			result.WriteString("\n")
		}

		result.WriteString(before)
		result.WriteString(change.Text)
		result.WriteString(after)

		for i := endLine + 1; i < len(lines); i++ {
			result.WriteString("\n")
			result.WriteString(lines[i])
		}
	}

	return result.String(), nil
}

// Slice returns the text covered by an LSP range. Positions beyond the end of
// a line or of the document are clamped, the way editors resolve them, so the
// result is always a substring of text.
func Slice(text string, rng protocol.Range) string {
	start := clampedOffset(text, rng.Start)
	end := clampedOffset(text, rng.End)

	if end < start {
		start, end = end, start
	}

	return text[start:end]
}

// EndPosition returns the position just past the final character of text, in
// UTF-16 code units.
func EndPosition(text string) protocol.Position {
	lines := strings.Split(text, "\n")
	last := lines[len(lines)-1]

	return protocol.Position{
		Line:      protocol.UInteger(len(lines) - 1),
		Character: protocol.UInteger(len(utf16.Encode([]rune(last)))),
	}
}

// FullRange returns the range spanning the whole of text.
func FullRange(text string) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: 0, Character: 0},
		End:   EndPosition(text),
	}
}

// clampedOffset converts a position to a byte offset, clamping lines past the
// document to its end and characters past a line to the line's end.
func clampedOffset(text string, pos protocol.Position) int {
	lines := strings.Split(text, "\n")

	line := int(pos.Line)
	if line >= len(lines) {
		return len(text)
	}

	offset := 0
	for i := 0; i < line; i++ {
		offset += len(lines[i]) + 1 // +1 for newline
	}

	return offset + clampedUTF16ToByte(lines[line], int(pos.Character))
}

// clampedUTF16ToByte is utf16CharOffsetToByteOffset without the error path:
// offsets past the end of the line resolve to the end of the line.
func clampedUTF16ToByte(line string, utf16Offset int) int {
	if utf16Offset <= 0 {
		return 0
	}

	byteOffset := 0
	utf16Count := 0

	for _, r := range line {
		if utf16Count >= utf16Offset {
			break
		}

		if r <= 0xFFFF {
			utf16Count++
		} else {
			utf16Count += 2
		}

		byteOffset += utf8.RuneLen(r)
	}

	return byteOffset
}

// utf16CharOffsetToByteOffset converts a UTF-16 character offset (as used by LSP)
// to a UTF-8 byte offset within the given line.
// LSP uses UTF-16 code units for character positions.
func utf16CharOffsetToByteOffset(line string, utf16Offset int) (int, error) {
	if utf16Offset == 0 {
		return 0, nil
	}

	// Convert the line to UTF-16 to count code units correctly
	utf16Units := utf16.Encode([]rune(line))

	// Validate offset
	if utf16Offset > len(utf16Units) {
		// Allow offset at end of line for insertions
		if utf16Offset == len(utf16Units) {
			return len(line), nil
		}

		return 0, fmt.Errorf("UTF-16 offset %d exceeds line length %d", utf16Offset, len(utf16Units))
	}

	// Count UTF-8 bytes up to the UTF-16 offset
	byteOffset := 0
	utf16Count := 0

	for _, r := range line {
		if utf16Count >= utf16Offset {
			break
		}

		// Count how many UTF-16 code units this rune takes
		// Runes in BMP (U+0000 to U+FFFF) take 1 code unit
		// Runes outside BMP take 2 code units (surrogate pair)
		if r <= 0xFFFF {
			utf16Count++
		} else {
			utf16Count += 2
		}

		byteOffset += utf8.RuneLen(r)
	}

	return byteOffset, nil
}
