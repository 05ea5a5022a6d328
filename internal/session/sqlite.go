package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using an index.db: one WAL-mode SQLite
// file per working directory, living alongside the append-only JSONL
// transcripts it indexes.
type SQLiteStore struct {
	db    *sql.DB
	cfg   Config
	home  string
	cwd   string
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    number INTEGER,
    summary TEXT,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    mode TEXT DEFAULT 'chat',
    cwd TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    parent_id TEXT REFERENCES sessions(id),
    thinking_persisted BOOLEAN DEFAULT FALSE,
    search BOOLEAN DEFAULT FALSE,
    tools TEXT,
    mcp TEXT,
    user_turns INTEGER DEFAULT 0,
    llm_turns INTEGER DEFAULT 0,
    tool_calls INTEGER DEFAULT 0,
    input_tokens INTEGER DEFAULT 0,
    output_tokens INTEGER DEFAULT 0,
    status TEXT DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('user', 'assistant', 'system', 'tool')),
    parts TEXT NOT NULL,
    text_content TEXT,
    duration_ms INTEGER,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    sequence INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_number ON sessions(number);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_mode ON sessions(mode);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_session_sequence ON messages(session_id, sequence);

CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT
);

-- Full-text search on extracted text content, rebuilt from the JSONL
-- transcripts if this index is ever deleted or falls out of sync.
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    text_content,
    content='messages',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, text_content) VALUES (new.id, new.text_content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text_content) VALUES ('delete', old.id, old.text_content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, text_content) VALUES ('delete', old.id, old.text_content);
    INSERT INTO messages_fts(rowid, text_content) VALUES (new.id, new.text_content);
END;
`

// NewSQLiteStore opens (creating if necessary) the index.db for
// cfg.WorkingDir under ~/.ion/sessions/<path-encoded>/.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	dbPath, err := IndexDBPath(cfg.Home, cfg.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve index.db path: %w", err)
	}

	dsn := dbPath
	if cfg.ReadOnly {
		dsn = "file:" + dbPath + "?mode=ro"
	}
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index.db: %w", err)
	}

	if !cfg.ReadOnly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
	}

	store := &SQLiteStore{db: db, cfg: cfg, home: cfg.Home, cwd: cfg.WorkingDir}

	if !cfg.ReadOnly {
		if err := store.cleanup(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: session cleanup failed: %v\n", err)
		}
	}
	return store, nil
}

// Rebuild drops and recreates index.db from the JSONL transcripts found
// in the session directory, so the index can always be rebuilt from
// scratch if it goes missing or corrupt.
func Rebuild(cfg Config) (*SQLiteStore, error) {
	dbPath, err := IndexDBPath(cfg.Home, cfg.WorkingDir)
	if err != nil {
		return nil, err
	}
	_ = os.Remove(dbPath)
	_ = os.Remove(dbPath + "-wal")
	_ = os.Remove(dbPath + "-shm")

	store, err := NewSQLiteStore(cfg)
	if err != nil {
		return nil, err
	}

	records, err := ReplayTranscripts(cfg.Home, cfg.WorkingDir)
	if err != nil {
		return store, fmt.Errorf("replay transcripts: %w", err)
	}
	ctx := context.Background()
	for _, rec := range records {
		sess := rec.Session
		if err := store.Create(ctx, &sess); err != nil {
			return store, fmt.Errorf("rebuild session %s: %w", sess.ID, err)
		}
		for i := range rec.Messages {
			rec.Messages[i].Sequence = i
			if err := store.AddMessage(ctx, sess.ID, &rec.Messages[i]); err != nil {
				return store, fmt.Errorf("rebuild message for %s: %w", sess.ID, err)
			}
		}
	}
	return store, nil
}

func (s *SQLiteStore) cleanup() error {
	ctx := context.Background()
	if s.cfg.MaxAgeDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -s.cfg.MaxAgeDays)
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", cutoff); err != nil {
			return fmt.Errorf("delete old sessions: %w", err)
		}
	}
	if s.cfg.MaxCount > 0 {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM sessions WHERE id IN (
				SELECT id FROM sessions ORDER BY updated_at DESC LIMIT -1 OFFSET ?
			)`, s.cfg.MaxCount)
		if err != nil {
			return fmt.Errorf("enforce max count: %w", err)
		}
	}
	return nil
}

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var sess Session
	var number sql.NullInt64
	var mode, parentID, tools, mcp, status sql.NullString
	err := row.Scan(&sess.ID, &number, &sess.Summary, &sess.Provider, &sess.Model, &mode,
		&sess.CWD, &sess.CreatedAt, &sess.UpdatedAt, &parentID, &sess.ThinkingPersisted,
		&sess.Search, &tools, &mcp,
		&sess.UserTurns, &sess.LLMTurns, &sess.ToolCalls, &sess.InputTokens, &sess.OutputTokens,
		&status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if number.Valid {
		sess.Number = number.Int64
	}
	if mode.Valid {
		sess.Mode = Mode(mode.String)
	}
	if parentID.Valid {
		sess.ParentID = parentID.String
	}
	if tools.Valid {
		sess.Tools = tools.String
	}
	if mcp.Valid {
		sess.MCP = mcp.String
	}
	if status.Valid {
		sess.Status = Status(status.String)
	}
	return &sess, nil
}

const sessionColumns = `id, number, summary, provider, model, mode, cwd, created_at, updated_at,
	       parent_id, thinking_persisted, search, tools, mcp,
	       user_turns, llm_turns, tool_calls, input_tokens, output_tokens, status`

// Create inserts a new session, assigning it the next sequential
// number for this working directory atomically.
func (s *SQLiteStore) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = NewID()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}
	if sess.Status == "" {
		sess.Status = StatusActive
	}
	if sess.Mode == "" {
		sess.Mode = ModeChat
	}

	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO sessions (id, number, summary, provider, model, mode, cwd, created_at, updated_at,
			                      parent_id, thinking_persisted, search, tools, mcp,
			                      user_turns, llm_turns, tool_calls, input_tokens, output_tokens, status)
			VALUES (?, (SELECT COALESCE(MAX(number), 0) + 1 FROM sessions), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.Summary, sess.Provider, sess.Model, string(sess.Mode), sess.CWD,
			sess.CreatedAt, sess.UpdatedAt, nullString(sess.ParentID), sess.ThinkingPersisted,
			sess.Search, nullString(sess.Tools), nullString(sess.MCP),
			sess.UserTurns, sess.LLMTurns, sess.ToolCalls, sess.InputTokens, sess.OutputTokens, string(sess.Status))
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return s.db.QueryRowContext(ctx, "SELECT number FROM sessions WHERE id = ?", sess.ID).Scan(&sess.Number)
	})
}

// Get retrieves a session by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE id = ?", id)
	return scanSession(row)
}

// GetByNumber retrieves a session by its sequential number within this
// working directory.
func (s *SQLiteStore) GetByNumber(ctx context.Context, number int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions WHERE number = ?", number)
	return scanSession(row)
}

// GetByPrefix resolves "#N" (sequential number), an exact ID, or a
// short-ID prefix, in that order — the same precedence a user expects
// from `ion resume <ref>`.
func (s *SQLiteStore) GetByPrefix(ctx context.Context, prefix string) (*Session, error) {
	numStr := strings.TrimPrefix(prefix, "#")
	if num, err := strconv.ParseInt(numStr, 10, 64); err == nil {
		if sess, err := s.GetByNumber(ctx, num); err == nil && sess != nil {
			return sess, nil
		}
	}
	if sess, err := s.Get(ctx, prefix); err != nil {
		return nil, err
	} else if sess != nil {
		return sess, nil
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id LIKE ? ORDER BY created_at DESC LIMIT 1",
		prefix+"%")
	return scanSession(row)
}

// Update modifies an existing session's mutable fields.
func (s *SQLiteStore) Update(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET summary = ?, provider = ?, model = ?, mode = ?, cwd = ?,
		       updated_at = ?, parent_id = ?, thinking_persisted = ?, search = ?, tools = ?, mcp = ?,
		       user_turns = ?, llm_turns = ?, tool_calls = ?, input_tokens = ?, output_tokens = ?, status = ?
		WHERE id = ?`,
		sess.Summary, sess.Provider, sess.Model, string(sess.Mode), sess.CWD,
		sess.UpdatedAt, nullString(sess.ParentID), sess.ThinkingPersisted,
		sess.Search, nullString(sess.Tools), nullString(sess.MCP),
		sess.UserTurns, sess.LLMTurns, sess.ToolCalls, sess.InputTokens, sess.OutputTokens,
		string(sess.Status), sess.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session not found: %s", sess.ID)
	}
	return nil
}

// UpdateMetrics adds deltas to the accumulated per-session metrics
// (used for incremental saves after each turn).
func (s *SQLiteStore) UpdateMetrics(ctx context.Context, id string, llmTurns, toolCalls, inputTokens, outputTokens int) error {
	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, `
			UPDATE sessions SET
			       llm_turns = llm_turns + ?,
			       tool_calls = tool_calls + ?,
			       input_tokens = input_tokens + ?,
			       output_tokens = output_tokens + ?,
			       updated_at = ?
			WHERE id = ?`,
			llmTurns, toolCalls, inputTokens, outputTokens, time.Now(), id)
		return err
	})
}

// UpdateStatus updates just the session status.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, "UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?",
			string(status), time.Now(), id)
		return err
	})
}

// IncrementUserTurns increments the user turn count.
func (s *SQLiteStore) IncrementUserTurns(ctx context.Context, id string) error {
	return retryOnBusy(ctx, 5, func() error {
		_, err := s.db.ExecContext(ctx, "UPDATE sessions SET user_turns = user_turns + 1, updated_at = ? WHERE id = ?",
			time.Now(), id)
		return err
	})
}

// Delete removes a session and its messages (foreign key cascade
// handles messages); the JSONL transcript on disk is left untouched,
// since transcripts are append-only.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("session not found: %s", id)
	}
	return nil
}

// List returns sessions matching the options, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	query := `
		SELECT s.id, s.number, s.summary, s.provider, s.model, s.mode, s.created_at, s.updated_at,
		       (SELECT COUNT(*) FROM messages WHERE session_id = s.id) as message_count, s.status
		FROM sessions s WHERE 1=1`
	args := []any{}
	if opts.Mode != "" {
		query += " AND s.mode = ?"
		args = append(args, string(opts.Mode))
	}
	if opts.Status != "" {
		query += " AND s.status = ?"
		args = append(args, string(opts.Status))
	}
	query += " ORDER BY s.updated_at DESC"

	limit := opts.Limit
	if limit == 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var results []Summary
	for rows.Next() {
		var sum Summary
		var number sql.NullInt64
		var mode, status sql.NullString
		if err := rows.Scan(&sum.ID, &number, &sum.Summary, &sum.Provider, &sum.Model, &mode,
			&sum.CreatedAt, &sum.UpdatedAt, &sum.MessageCount, &status); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		if number.Valid {
			sum.Number = number.Int64
		}
		if mode.Valid {
			sum.Mode = Mode(mode.String)
		}
		if status.Valid {
			sum.Status = Status(status.String)
		}
		results = append(results, sum)
	}
	return results, rows.Err()
}

// Search finds sessions containing the query text using FTS5, backing
// the `/resume` and `ion sessions search` flows.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit == 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.session_id, s.number, m.id, s.summary,
		       snippet(messages_fts, 0, '**', '**', '...', 32),
		       s.provider, s.model, m.created_at
		FROM messages_fts f
		JOIN messages m ON m.id = f.rowid
		JOIN sessions s ON s.id = m.session_id
		WHERE messages_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var number sql.NullInt64
		if err := rows.Scan(&r.SessionID, &number, &r.MessageID, &r.Summary,
			&r.Snippet, &r.Provider, &r.Model, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		if number.Valid {
			r.SessionNumber = number.Int64
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// AddMessage adds a message to a session. If msg.Sequence < 0, the
// sequence number is auto-allocated atomically.
func (s *SQLiteStore) AddMessage(ctx context.Context, sessionID string, msg *Message) error {
	msg.SessionID = sessionID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	partsJSON, err := msg.PartsJSON()
	if err != nil {
		return fmt.Errorf("serialize parts: %w", err)
	}
	autoSequence := msg.Sequence < 0

	return retryOnBusy(ctx, 5, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if autoSequence {
			var maxSeq sql.NullInt64
			if err := tx.QueryRowContext(ctx, "SELECT MAX(sequence) FROM messages WHERE session_id = ?", sessionID).Scan(&maxSeq); err != nil {
				return fmt.Errorf("get max sequence: %w", err)
			}
			if maxSeq.Valid {
				msg.Sequence = int(maxSeq.Int64) + 1
			} else {
				msg.Sequence = 0
			}
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, role, parts, text_content, duration_ms, created_at, sequence)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, string(msg.Role), partsJSON, msg.TextContent, msg.DurationMs, msg.CreatedAt, msg.Sequence)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		id, _ := result.LastInsertId()
		msg.ID = id

		if _, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", time.Now(), sessionID); err != nil {
			return fmt.Errorf("update session timestamp: %w", err)
		}
		return tx.Commit()
	})
}

// ReplaceMessages deletes all existing messages for the session and
// inserts the new set in a single transaction. Used after context
// compaction.
func (s *SQLiteStore) ReplaceMessages(ctx context.Context, sessionID string, messages []Message) error {
	return retryOnBusy(ctx, 5, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("delete existing messages: %w", err)
		}
		for i, msg := range messages {
			msg.SessionID = sessionID
			msg.Sequence = i
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = time.Now()
			}
			partsJSON, err := msg.PartsJSON()
			if err != nil {
				return fmt.Errorf("serialize parts for message %d: %w", i, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO messages (session_id, role, parts, text_content, duration_ms, created_at, sequence)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				sessionID, string(msg.Role), partsJSON, msg.TextContent, msg.DurationMs, msg.CreatedAt, msg.Sequence); err != nil {
				return fmt.Errorf("insert message %d: %w", i, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", time.Now(), sessionID); err != nil {
			return fmt.Errorf("update session timestamp: %w", err)
		}
		return tx.Commit()
	})
}

// GetMessages retrieves messages for a session in sequence order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit, offset int) ([]Message, error) {
	query := `
		SELECT id, session_id, role, parts, text_content, duration_ms, created_at, sequence
		FROM messages WHERE session_id = ? ORDER BY sequence ASC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var partsJSON string
		var durationMs sql.NullInt64
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &partsJSON,
			&msg.TextContent, &durationMs, &msg.CreatedAt, &msg.Sequence); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if durationMs.Valid {
			msg.DurationMs = durationMs.Int64
		}
		if err := msg.SetPartsFromJSON(partsJSON); err != nil {
			return nil, fmt.Errorf("deserialize parts: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SetCurrent marks a session as the current one for --continue.
func (s *SQLiteStore) SetCurrent(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO metadata (key, value) VALUES ('current_session', ?)", sessionID)
	return err
}

// GetCurrent retrieves the current session.
func (s *SQLiteStore) GetCurrent(ctx context.Context) (*Session, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'current_session'").Scan(&sessionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sessionID)
}

// ClearCurrent removes the current session marker.
func (s *SQLiteStore) ClearCurrent(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM metadata WHERE key = 'current_session'")
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") || strings.Contains(errStr, "database is locked")
}

// retryOnBusy retries an operation with exponential backoff on
// SQLITE_BUSY, beyond what the busy_timeout pragma alone covers under
// high contention (e.g. a background session-search query racing a
// turn's AddMessage writes).
func retryOnBusy(ctx context.Context, maxRetries int, op func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if err == nil || !isBusyError(err) {
			return err
		}
		d := time.Duration(10*(1<<i)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}
	return err
}
