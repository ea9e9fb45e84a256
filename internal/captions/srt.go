package captions

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"transcribr/internal/services"
)

const (
	// Arrow separates start and end on a cue timing line.
	Arrow = "-->"
	// ArrowSubstitute replaces Arrow inside cue text.
	ArrowSubstitute = "->"
	// Extension is the file extension used for caption files.
	Extension = ".srt"
)

// Segment is one recognized utterance span in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Entry is a single numbered cue of a caption body.
type Entry struct {
	Index int
	Start string
	End   string
	Text  string
}

// Sanitize trims text and replaces every timing arrow so the cue can never be
// mistaken for a timing line.
func Sanitize(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), Arrow, ArrowSubstitute)
}

// Serialize renders segments as an SRT body in input order. Each cue is the
// 1-based index, the timing line, the sanitized text and a blank separator line.
// An empty input yields an empty string. Segments with negative or non-finite
// times, or an end before the start, return ErrSerialization.
func Serialize(segments []Segment) (string, error) {
	var sb strings.Builder
	for i, seg := range segments {
		entry, err := entryFor(i+1, seg)
		if err != nil {
			return "", err
		}
		sb.WriteString(strconv.Itoa(entry.Index))
		sb.WriteByte('\n')
		sb.WriteString(entry.Start)
		sb.WriteString(" " + Arrow + " ")
		sb.WriteString(entry.End)
		sb.WriteByte('\n')
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func entryFor(index int, seg Segment) (Entry, error) {
	if !finite(seg.Start) || !finite(seg.End) || seg.Start < 0 || seg.End < seg.Start {
		return Entry{}, services.Wrap(services.ErrSerialization, "captions", "serialize",
			fmt.Sprintf("segment %d has invalid bounds start=%v end=%v", index, seg.Start, seg.End), nil)
	}
	start, err := FormatTimestamp(seg.Start, true, ",")
	if err != nil {
		return Entry{}, services.Wrap(services.ErrSerialization, "captions", "serialize", fmt.Sprintf("segment %d start", index), err)
	}
	end, err := FormatTimestamp(seg.End, true, ",")
	if err != nil {
		return Entry{}, services.Wrap(services.ErrSerialization, "captions", "serialize", fmt.Sprintf("segment %d end", index), err)
	}
	return Entry{Index: index, Start: start, End: end, Text: Sanitize(seg.Text)}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Parse reads an SRT body into entries. Blocks are separated by blank lines;
// a block must carry an index line and a timing line, text lines are joined
// with newlines.
func Parse(body string) ([]Entry, error) {
	content := strings.TrimSpace(strings.ReplaceAll(body, "\r\n", "\n"))
	if content == "" {
		return nil, nil
	}
	blocks := strings.Split(content, "\n\n")
	entries := make([]Entry, 0, len(blocks))
	for _, block := range blocks {
		block = strings.Trim(block, "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("parse srt: incomplete cue %q", block)
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("parse srt: invalid index %q", lines[0])
		}
		parts := strings.Split(lines[1], Arrow)
		if len(parts) != 2 {
			return nil, fmt.Errorf("parse srt: invalid timing line %q", lines[1])
		}
		start, end := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if _, err := ParseTimestamp(start); err != nil {
			return nil, fmt.Errorf("parse srt: cue %d: %w", index, err)
		}
		if _, err := ParseTimestamp(end); err != nil {
			return nil, fmt.Errorf("parse srt: cue %d: %w", index, err)
		}
		entries = append(entries, Entry{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}
	return entries, nil
}
