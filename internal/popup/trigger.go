package popup

import "strings"

// Trigger describes an active completion trigger found in the composer
// buffer: which kind it is, and the query text typed since the trigger
// character (not including the trigger itself).
type Trigger struct {
	Kind  Kind
	Start int // byte offset of the trigger character
	Query string
}

// Detect scans text up to cursor for an active trigger. It looks backward
// from the cursor to the nearest preceding whitespace or start-of-line,
// then checks whether that word starts with a recognized trigger character.
// A trigger only fires at the start of a line for "/" (slash commands are
// not word-completion mid-sentence) but anywhere for "@" and "//" (skills),
// matching how attachments and skill mentions can appear inline.
func Detect(text string, cursor int) (Trigger, bool) {
	if cursor < 0 || cursor > len(text) {
		cursor = len(text)
	}
	head := text[:cursor]

	wordStart := strings.LastIndexAny(head, " \t\n")
	word := head[wordStart+1:]
	atLineStart := wordStart == -1 || head[wordStart] == '\n'

	switch {
	case strings.HasPrefix(word, "//"):
		return Trigger{Kind: KindSkill, Start: cursor - len(word), Query: word[2:]}, true
	case strings.HasPrefix(word, "/") && atLineStart:
		return Trigger{Kind: KindCommand, Start: cursor - len(word), Query: word[1:]}, true
	case strings.HasPrefix(word, "@"):
		return Trigger{Kind: KindFile, Start: cursor - len(word), Query: word[1:]}, true
	default:
		return Trigger{}, false
	}
}
