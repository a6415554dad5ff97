package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/stagegraph/internal/config"
	"github.com/matzehuels/stagegraph/pkg/runner"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 150 * time.Millisecond

// watchRender renders input, then renders again on every change until ctx
// is cancelled. Unchanged stage lists are skipped; render errors are
// reported and watching continues.
func (c *CLI) watchRender(ctx context.Context, cfg *config.Config, input string, opts runner.Options, rf renderFlags) error {
	stages, err := loadStages(ctx, input)
	if err != nil {
		return err
	}
	if _, err := c.renderStages(ctx, cfg, input, stages, opts, rf); err != nil {
		return err
	}
	printInfo("Watching %s (ctrl+c to stop)", input)

	err = watchFile(ctx, input, watchDebounce, func() {
		next, err := loadStages(ctx, input)
		if err != nil {
			printError("%v", err)
			return
		}
		if stage.EqualList(stages, next) {
			c.Logger.Debug("stages unchanged", "path", input)
			return
		}
		stages = next
		if _, err := c.renderStages(ctx, cfg, input, stages, opts, rf); err != nil {
			printError("%v", err)
		}
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// watchFile calls onChange after path is written, created or replaced,
// once per burst of events. The parent directory is watched so that
// editors which save by rename keep being tracked. onChange runs on the
// calling goroutine.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		case <-timer.C:
			onChange()
		}
	}
}
