package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/recall-dev/recall/internal/debounce"
	"github.com/recall-dev/recall/internal/vectordb"
	"github.com/recall-dev/recall/internal/walker"
)

// watchDebounceDelay coalesces the event bursts editors produce when
// saving a file.
const watchDebounceDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project and keep the index up to date",
	Long: `Watches the project directories for changes and reindexes modified
files in the background. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, b.walkCfg.RootDir); err != nil {
		return err
	}

	debouncer := debounce.New[string](watchDebounceDelay)
	defer debouncer.Shutdown()

	b.pipeline.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s for changes\n", b.walkCfg.RootDir)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "Shutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			b.handleWatchEvent(watcher, debouncer, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Warn("watcher error", "err", err)
		}
	}
}

// handleWatchEvent routes one filesystem event: new directories get
// watched, eligible files get debounced into the pipeline, removed
// files get their chunks dropped.
func (b *backend) handleWatchEvent(watcher *fsnotify.Watcher, debouncer *debounce.Debouncer[string], event fsnotify.Event) {
	path := event.Name

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !walker.SkipDir(filepath.Base(path)) {
				if err := watcher.Add(path); err != nil {
					b.logger.Warn("watching new directory failed", "dir", path, "err", err)
				}
			}
			return
		}
	}

	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		dir := filepath.ToSlash(filepath.Dir(path))
		prefix := vectordb.IDPrefix(dir, filepath.Base(path))
		debouncer.Debounce(path, func() {
			if err := b.store.Remove(context.Background(), vectordb.FilterByIDPrefix(prefix)); err != nil {
				b.logger.Warn("removing deleted file from index failed", "path", path, "err", err)
			}
		})
		return
	}

	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}
	if !b.walkCfg.ShouldIndex(path) {
		return
	}

	debouncer.Debounce(path, func() {
		if b.pipeline.Enqueue(path) {
			b.logger.Debug("queued changed file", "path", path)
		}
	})
}

// addWatchDirs registers root and every non-excluded subdirectory.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && walker.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
