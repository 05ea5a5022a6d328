package udiff

import (
	"fmt"
	"strings"
)

// Parse reads the custom unified-diff text format described to the model in
// the unified_diff tool's system prompt:
//
//	--- path/to/file
//	+++ path/to/file
//	@@ context to locate @@
//	 context line (space prefix)
//	-line being removed
//	+line being added
//
// A hunk may use a bare "-..." line as an elision marker in place of listing
// every removed line; Apply/ApplyWithWarnings resolve it using brace-depth
// tracking between the start anchor and the line following the marker.
// Multiple ---/+++ blocks in one diff target multiple files.
func Parse(diffText string) ([]FileDiff, error) {
	lines := strings.Split(diffText, "\n")

	var diffs []FileDiff
	var cur *FileDiff
	var hunk *Hunk
	i := 0

	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
			hunk = nil
		}
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			diffs = append(diffs, *cur)
			cur = nil
		}
	}

	for i < len(lines) {
		line := lines[i]

		switch {
		case strings.HasPrefix(line, "--- "):
			flushFile()
			path := strings.TrimPrefix(line, "--- ")
			path = strings.TrimPrefix(path, "a/")
			cur = &FileDiff{Path: strings.TrimSpace(path)}

			// The +++ line carries the authoritative (post-edit) path; a
			// rename shows up here, but we key off it since that's the
			// file callers actually write back to.
			if i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ ") {
				newPath := strings.TrimPrefix(lines[i+1], "+++ ")
				newPath = strings.TrimPrefix(newPath, "b/")
				newPath = strings.TrimSpace(newPath)
				if newPath != "" && newPath != "/dev/null" {
					cur.Path = newPath
				}
				i++
			}

		case strings.HasPrefix(line, "@@"):
			if cur == nil {
				return nil, fmt.Errorf("hunk header before any --- file header: %q", line)
			}
			flushHunk()
			hunk = &Hunk{Context: parseHunkContext(line)}

		case hunk != nil && strings.HasPrefix(line, " "):
			hunk.Lines = append(hunk.Lines, Line{Type: Context, Content: strings.TrimPrefix(line, " ")})

		case hunk != nil && strings.HasPrefix(line, "-"):
			body := strings.TrimPrefix(line, "-")
			if strings.TrimSpace(body) == "..." {
				hunk.Lines = append(hunk.Lines, Line{Type: Elision})
			} else {
				hunk.Lines = append(hunk.Lines, Line{Type: Remove, Content: body})
			}

		case hunk != nil && strings.HasPrefix(line, "+"):
			hunk.Lines = append(hunk.Lines, Line{Type: Add, Content: strings.TrimPrefix(line, "+")})

		case strings.TrimSpace(line) == "":
			// Blank separator between blocks; ignored.

		default:
			// Unrecognized line outside a hunk body (e.g. stray prose from
			// the model). Ignore rather than fail the whole diff.
		}

		i++
	}

	flushFile()
	return diffs, nil
}

// parseHunkContext extracts the free-form text between the leading and
// trailing "@@" markers, e.g. "@@ func BigFunction @@" -> "func BigFunction".
func parseHunkContext(line string) string {
	rest := strings.TrimPrefix(line, "@@")
	if idx := strings.LastIndex(rest, "@@"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}
