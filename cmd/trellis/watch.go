package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var flagDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and report affected files on change",
	Long:  "Runs an initial scan, then watches the workspace with fsnotify. Changes are debounced into a changed-file set; each batch triggers an incremental rescan and prints the affected set.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", 300*time.Millisecond, "quiet period before a rescan")
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, root, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.Scan(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Watching %s (%d files)\n", root, len(e.Files()))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchDirs(watcher, root); err != nil {
		return err
	}

	changed := make(map[string]struct{})
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			// New directories need watching too.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirs(watcher, event.Name)
					continue
				}
			}
			changed[filepath.Clean(event.Name)] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(flagDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)

		case <-fire:
			if len(changed) == 0 {
				continue
			}
			batch := make([]string, 0, len(changed))
			for p := range changed {
				batch = append(batch, p)
			}
			changed = make(map[string]struct{})

			affected, err := e.Rescan(ctx, batch)
			if err != nil {
				slog.Error("rescan failed", "err", err)
				continue
			}
			paths := make([]string, 0, len(affected))
			for p := range affected {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			fmt.Fprintf(os.Stderr, "Changed %d file(s), affected %d:\n", len(batch), len(paths))
			for _, p := range paths {
				fmt.Fprintf(os.Stderr, "  %s\n", p)
			}
			if cycles := e.Cycles(); len(cycles) > 0 {
				fmt.Fprintf(os.Stderr, "Import cycles: %d\n", len(cycles))
			}
		}
	}
}

// watchDirs registers root and all its non-hidden subdirectories.
func watchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// relevantEvent filters to content-changing events on supported files.
func relevantEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".")
}
