// Package obs sets up process-wide structured logging.
// Nothing in ion writes to stdout/stderr while raw mode is active, since that
// would corrupt the inline UI; all diagnostics go to ~/.ion/logs/ion.log.
package obs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
)

// Level mirrors the -v/-q CLI flags onto a zerolog level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// Setup opens for appending (creating parent directories as needed) the log
// file dir/ion.log and installs it as the destination for Logger/For.
// Callers hold the returned io.Closer open for the process lifetime.
func Setup(dir string, level Level) (io.Closer, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("obs: create log dir: %w", err)
	}

	path := filepath.Join(dir, "ion.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("obs: open log file: %w", err)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	switch level {
	case LevelDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case LevelError:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	base = zerolog.New(file).With().Timestamp().Logger()
	return file, nil
}

// base is the root logger; For derives named sub-loggers from it. Before
// Setup is called (e.g. in tests) it discards everything, so packages that
// hold a package-level logger obtained via For never need a nil check.
var base = zerolog.New(io.Discard)

// For returns a sub-logger tagged component=name, so log lines from the
// render loop, agent orchestrator, tool executor, and MCP manager can be
// filtered independently.
func For(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// InstallPanicHook recovers a panic, logs it with its stack trace via the
// named component's logger, runs restoreTerminal (leaving the terminal in a
// sane state even though nothing reached the screen), and re-panics so the
// process still exits non-zero.
func InstallPanicHook(component string, restoreTerminal func()) {
	if r := recover(); r != nil {
		buf := make([]byte, 1<<16)
		n := runtime.Stack(buf, false)
		For(component).Error().
			Interface("panic", r).
			Str("stack", string(buf[:n])).
			Msg("recovered panic")
		if restoreTerminal != nil {
			restoreTerminal()
		}
		panic(r)
	}
}
