package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilekit/pkg/errors"
	"github.com/matzehuels/tilekit/pkg/observability"
)

// checkOutput fails with OUTPUT_EXISTS when dir holds anything and
// overwrite is off. A missing or empty directory is fine.
func checkOutput(dir string, overwrite bool) error {
	entries, err := os.ReadDir(dir)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output %s is not a directory", dir)
	case len(entries) > 0 && !overwrite:
		return errors.New(errors.ErrCodeOutputExists, "output directory %s already exists (use --overwrite to replace it)", dir)
	}
	return nil
}

// stageAndCommit runs write against a fresh staging directory beside dir and
// renames it to dir when write succeeds. Any failure, including ctx
// cancellation, removes the staging directory and leaves dir untouched.
func stageAndCommit(ctx context.Context, logger *log.Logger, dir string, overwrite bool, write func(staging string) ([]string, error)) (files []string, err error) {
	start := time.Now()
	defer func() {
		observability.Output().OnCommit(ctx, dir, len(files), time.Since(start), err)
	}()

	if err := checkOutput(dir, overwrite); err != nil {
		return nil, err
	}
	parent, base := filepath.Split(filepath.Clean(dir))
	if parent == "" {
		parent = "."
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, err
	}
	staging, err := os.MkdirTemp(parent, "."+base+".staging-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(staging)
		}
	}()
	if err := os.Chmod(staging, 0o755); err != nil {
		return nil, err
	}

	files, err = write(staging)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := replace(logger, staging, dir, overwrite); err != nil {
		return nil, err
	}
	committed = true
	return files, nil
}

// removeAll deletes the previous output after a commit.
var removeAll = os.RemoveAll

// replace moves staging to dir. An existing dir is first moved aside and
// only deleted after the rename succeeds. Once dir holds the new output the
// commit stands; a leftover backup is logged, not returned.
func replace(logger *log.Logger, staging, dir string, overwrite bool) error {
	if err := checkOutput(dir, overwrite); err != nil {
		return err
	}
	var backup string
	if _, err := os.Stat(dir); err == nil {
		backup = staging + ".old"
		if err := os.Rename(dir, backup); err != nil {
			return fmt.Errorf("move aside %s: %w", dir, err)
		}
	}
	if err := os.Rename(staging, dir); err != nil {
		if backup != "" {
			_ = os.Rename(backup, dir)
		}
		return fmt.Errorf("commit %s: %w", dir, err)
	}
	if backup != "" {
		if err := removeAll(backup); err != nil {
			logger.Warn("could not remove previous output", "path", backup, "err", err)
		}
	}
	return nil
}
