package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// runLogged slices a demo sheet and organizes it through a CLI logging to a
// buffer at level, returning the organize log.
func runLogged(t *testing.T, level log.Level) string {
	t.Helper()
	root := t.TempDir()
	sheet, cfg := writeInputs(t, root)
	sliced := filepath.Join(root, "sliced")

	var buf bytes.Buffer
	c := New(&buf, level)
	steps := [][]string{
		{"slice", sheet, "--tile-w", "8", "--tile-h", "8", "-o", sliced},
		{"organize", sliced, "-c", cfg, "-o", filepath.Join(root, "organized"), "--graph", "none"},
	}
	for _, args := range steps {
		buf.Reset()
		cmd := c.RootCommand()
		cmd.SetArgs(args)
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		if err := cmd.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%s: %v", args[0], err)
		}
	}
	return buf.String()
}

func TestOrganizeLogsProgress(t *testing.T) {
	out := runLogged(t, LogInfo)

	line := regexp.MustCompile(`(?m)^\d{2}:\d{2}:\d{2}\.\d{2} INFO Organized 2 groups \(\d[^)]*s\)$`)
	if !line.MatchString(out) {
		t.Errorf("missing timed progress line in:\n%s", out)
	}
	if !strings.Contains(out, "loaded inputs") || !strings.Contains(out, "run=") {
		t.Errorf("runner log did not reach the CLI logger:\n%s", out)
	}
	if strings.Contains(out, "organized group") {
		t.Errorf("per-group debug lines logged at info level:\n%s", out)
	}
}

func TestOrganizeDebugLogsGroups(t *testing.T) {
	out := runLogged(t, LogDebug)

	for _, want := range []string{"organized group", "group=walls", "connect=edge_match"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug log missing %q in:\n%s", want, out)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)

	c.Logger.Debug("hidden")
	c.SetLogLevel(LogDebug)
	c.Logger.Debug("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged before SetLogLevel(LogDebug)")
	}
	if !strings.Contains(out, "DEBU shown") {
		t.Errorf("debug message missing after SetLogLevel(LogDebug): %q", out)
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	prog.start = prog.start.Add(-1500 * time.Millisecond)

	prog.done("Sliced 4 tiles")

	if !strings.Contains(buf.String(), "INFO Sliced 4 tiles (1.5") {
		t.Errorf("done() = %q, want message with elapsed seconds", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext() without a logger should fall back to log.Default()")
	}

	c := New(io.Discard, LogInfo)
	ctx := withLogger(context.Background(), c.Logger)
	if loggerFromContext(ctx) != c.Logger {
		t.Error("loggerFromContext() did not return the attached CLI logger")
	}
}
