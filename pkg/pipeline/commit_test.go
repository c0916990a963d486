package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func writeMarker(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceOverwrites(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	staging := filepath.Join(root, ".out.staging-1")
	writeMarker(t, dir, "old.txt")
	writeMarker(t, staging, "new.txt")

	if err := replace(log.New(&bytes.Buffer{}), staging, dir, true); err != nil {
		t.Fatalf("replace() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "new.txt")); err != nil {
		t.Errorf("new output missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.txt")); !os.IsNotExist(err) {
		t.Errorf("old output survived: %v", err)
	}
	if _, err := os.Stat(staging + ".old"); !os.IsNotExist(err) {
		t.Errorf("backup left behind: %v", err)
	}
}

func TestReplaceKeepsCommitWhenBackupRemovalFails(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	staging := filepath.Join(root, ".out.staging-1")
	writeMarker(t, dir, "old.txt")
	writeMarker(t, staging, "new.txt")

	orig := removeAll
	removeAll = func(string) error { return fmt.Errorf("device busy") }
	t.Cleanup(func() { removeAll = orig })

	var buf bytes.Buffer
	if err := replace(log.New(&buf), staging, dir, true); err != nil {
		t.Fatalf("replace() error = %v, want nil after a successful rename", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "new.txt")); err != nil {
		t.Errorf("new output missing: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "could not remove previous output") || !strings.Contains(out, "device busy") {
		t.Errorf("log = %q, want a warning naming the cleanup failure", out)
	}
}

func TestReplaceRefusesExisting(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	staging := filepath.Join(root, ".out.staging-1")
	writeMarker(t, dir, "old.txt")
	writeMarker(t, staging, "new.txt")

	if err := replace(log.New(&bytes.Buffer{}), staging, dir, false); err == nil {
		t.Fatal("replace() without overwrite succeeded over existing output")
	}
	if _, err := os.Stat(filepath.Join(dir, "old.txt")); err != nil {
		t.Errorf("existing output was touched: %v", err)
	}
}
