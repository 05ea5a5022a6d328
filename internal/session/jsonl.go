package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// transcriptLine is one line of a session's append-only JSONL
// transcript: either the session's metadata (always the
// first line, rewritten via a full-file rewrite when metadata
// changes) or a single message.
type transcriptLine struct {
	Type    string   `json:"type"` // "session" or "message"
	Session *Session `json:"session,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Transcript appends to and replays the JSONL file backing one
// session; index.db is a cache over this file and can always be
// rebuilt from it.
type Transcript struct {
	path string
}

// OpenTranscript returns the Transcript for a session, creating its
// directory if necessary. It does not create the file itself — the
// first WriteSession call does.
func OpenTranscript(home, cwd, sessionID string) (*Transcript, error) {
	path, err := TranscriptPath(home, cwd, sessionID)
	if err != nil {
		return nil, err
	}
	return &Transcript{path: path}, nil
}

// WriteSession appends the current session metadata as a new line.
// Because the transcript is append-only, a session's live state is
// always "the last session line", not "the only session line".
func (t *Transcript) WriteSession(sess *Session) error {
	return t.append(transcriptLine{Type: "session", Session: sess})
}

// AppendMessage appends one message line.
func (t *Transcript) AppendMessage(msg *Message) error {
	return t.append(transcriptLine{Type: "message", Message: msg})
}

func (t *Transcript) append(line transcriptLine) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open transcript %s: %w", t.path, err)
	}
	defer f.Close()

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("marshal transcript line: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append transcript line: %w", err)
	}
	return nil
}

// TranscriptRecord is one session fully replayed from its JSONL file:
// the most recent session-metadata line plus every message line in
// order.
type TranscriptRecord struct {
	Session  Session
	Messages []Message
}

// ReadTranscript replays a single JSONL file into a TranscriptRecord.
func ReadTranscript(path string) (*TranscriptRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript %s: %w", path, err)
	}
	defer f.Close()

	rec := &TranscriptRecord{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var line transcriptLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("parse transcript line: %w", err)
		}
		switch line.Type {
		case "session":
			if line.Session != nil {
				rec.Session = *line.Session
			}
		case "message":
			if line.Message != nil {
				rec.Messages = append(rec.Messages, *line.Message)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan transcript %s: %w", path, err)
	}
	return rec, nil
}

// ReplayTranscripts reads every session JSONL file under a working
// directory's session folder, oldest first, for index.db rebuilds.
func ReplayTranscripts(home, cwd string) ([]*TranscriptRecord, error) {
	dir, err := SessionDir(home, cwd)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session dir %s: %w", dir, err)
	}

	var records []*TranscriptRecord
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		rec, err := ReadTranscript(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if rec.Session.ID == "" {
			continue
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Session.CreatedAt.Before(records[j].Session.CreatedAt)
	})
	return records, nil
}
