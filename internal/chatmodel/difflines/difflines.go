// Package difflines classifies old/new file content into unified-diff
// lines for rendering in the chat log ("diff line coloring
// +/-/@@"). This is a rendering concern, distinct from internal/udiff's
// concern of applying a hunk to a file.
package difflines

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Kind classifies a single rendered diff line.
type Kind int

const (
	Context Kind = iota
	Add
	Remove
	Hunk // an "@@ ... @@" header
)

// Line is one line of a rendered unified diff.
type Line struct {
	Kind Kind
	Text string // without the leading +/-/space/@@ marker
}

// Compute diffs old against new content for path, returning classified
// lines ready for the chat renderer to color.
func Compute(path, old, updated string) []Line {
	uri := span.URIFromPath(path)
	edits := myers.ComputeEdits(uri, old, updated)
	unified := gotextdiff.ToUnified(path, path, old, edits)

	text := fmt.Sprint(unified)
	return parseUnified(text)
}

func parseUnified(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		switch {
		case raw == "":
			continue
		case strings.HasPrefix(raw, "--- "), strings.HasPrefix(raw, "+++ "):
			continue
		case strings.HasPrefix(raw, "@@"):
			lines = append(lines, Line{Kind: Hunk, Text: raw})
		case strings.HasPrefix(raw, "+"):
			lines = append(lines, Line{Kind: Add, Text: raw[1:]})
		case strings.HasPrefix(raw, "-"):
			lines = append(lines, Line{Kind: Remove, Text: raw[1:]})
		default:
			content := raw
			if strings.HasPrefix(content, " ") {
				content = content[1:]
			}
			lines = append(lines, Line{Kind: Context, Text: content})
		}
	}
	return lines
}
