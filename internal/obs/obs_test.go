package obs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetupCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	closer, err := Setup(dir, LevelInfo)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer closer.Close()

	For("agent").Info().Msg("hello")

	data, err := os.ReadFile(filepath.Join(dir, "ion.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to contain at least one line")
	}
}

func TestInstallPanicHookRestoresTerminalAndRepanics(t *testing.T) {
	dir := t.TempDir()
	closer, err := Setup(dir, LevelDebug)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer closer.Close()

	restored := false
	func() {
		defer func() {
			recover()
		}()
		defer InstallPanicHook("test", func() { restored = true })
		panic("boom")
	}()

	if !restored {
		t.Error("expected restoreTerminal to run before re-panic")
	}
}
