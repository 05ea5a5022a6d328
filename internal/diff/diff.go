// Package diff holds shared constants for diff-aware tool results
// (the chat log's "Diff" entry kind for edit-tool results).
package diff

// MaxDiffSize bounds how large a before/after pair may be before a write_file
// or edit_file tool call skips attaching a llm.DiffData to its ToolOutput.
// Above this size the full-file diff is too expensive to render inline;
// the tool still reports success, just without the diff view.
const MaxDiffSize = 200_000
