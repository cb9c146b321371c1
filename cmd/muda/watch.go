package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ThandieOps/muda/internal/cache"
	"github.com/ThandieOps/muda/internal/logger"
	"github.com/ThandieOps/muda/internal/scanner"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	watchDebounce time.Duration
	watchSchedule string
)

// watchCmd represents: `muda watch [dir]`
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Rebuild whenever a file below the directory changes",
	Long: `Watch builds the directory once, then rebuilds it fully each time a file
below it is created, written, removed or renamed. Changes are collected for
the debounce interval before a build starts. Directories listed in the
watch.ignore setting and hidden directories are not watched, and neither are
the build directories and object files of the last build. Changes arriving
within the debounce interval after a build are treated as caused by it. With --schedule
(a cron expression such as "@hourly" or "*/15 * * * *") it also rebuilds
periodically.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runWatch(ctx, cmd, args); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addBuildFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a rebuild (default from settings)")
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "Cron expression for periodic rebuilds (default from settings)")
}

func runWatch(ctx context.Context, cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	debounce := cfg.Watch.Debounce
	if cmd.Flags().Changed("debounce") {
		debounce = watchDebounce
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	ignored := cfg.Watch.Ignore
	if err := watchTree(watcher, root, ignored); err != nil {
		return err
	}
	filter := newChangeFilter(root, ignored, debounce)

	rebuild := func() {
		report, err := buildOnce(ctx, cmd, []string{root}, false)
		if report != nil {
			printSummary(report)
		}
		if err != nil {
			logger.Error("build failed", "error", err)
		}
		filter.built(report, time.Now())
		logger.Info("watching for changes", "directory", root, "debounce", debounce)
	}
	rebuild()

	schedule := cfg.Watch.Schedule
	if cmd.Flags().Changed("schedule") {
		schedule = watchSchedule
	}
	tick, stopSchedule, err := startSchedule(schedule)
	if err != nil {
		return err
	}
	defer stopSchedule()

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filter.generated(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := watchTree(watcher, ev.Name, ignored); err != nil {
						logger.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			if filter.settling(time.Now()) {
				logger.Debug("ignoring change caused by the build", "path", ev.Name)
				continue
			}
			logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			pending = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-tick:
			logger.Debug("scheduled rebuild", "schedule", schedule)
			pending = true
			timer.Reset(0)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			rebuild()
		}
	}
}

// startSchedule signals the returned channel on every cron tick. An empty
// schedule returns a channel that never fires. Ticks that arrive while a
// build runs collapse into one.
func startSchedule(spec string) (<-chan struct{}, func(), error) {
	tick := make(chan struct{}, 1)
	if spec == "" {
		return tick, func() {}, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		select {
		case tick <- struct{}{}:
		default:
		}
	}); err != nil {
		return nil, nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	c.Start()
	logger.Info("scheduled rebuilds enabled", "schedule", spec)
	return tick, func() { <-c.Stop().Done() }, nil
}

// watchTree adds dir and every subdirectory that is neither hidden nor
// ignored. fsnotify does not watch recursively.
func watchTree(w *fsnotify.Watcher, dir string, ignored []string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && skipDir(d.Name(), ignored) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func skipDir(name string, ignored []string) bool {
	return strings.HasPrefix(name, ".") || name == scanner.ReservedDir || slices.Contains(ignored, name)
}

// watchIgnored reports whether path lies in a hidden or ignored directory
// below root. Build outputs land in such directories.
func watchIgnored(root, path string, ignored []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, p := range parts[:len(parts)-1] {
		if skipDir(p, ignored) {
			return true
		}
	}
	last := parts[len(parts)-1]
	return strings.HasPrefix(last, ".") || slices.Contains(ignored, last)
}

// changeFilter tells source edits apart from the files a build writes
type changeFilter struct {
	root    string
	ignored []string
	quiet   time.Duration

	outputDirs []string
	objects    []string
	quietUntil time.Time
}

func newChangeFilter(root string, ignored []string, quiet time.Duration) *changeFilter {
	return &changeFilter{root: root, ignored: ignored, quiet: quiet}
}

// built records the outputs of a finished build and starts the quiet
// period. Outputs of earlier builds are kept; a failed run may have no report.
func (f *changeFilter) built(r *cache.Report, now time.Time) {
	f.quietUntil = now.Add(f.quiet)
	if r == nil {
		return
	}
	for _, t := range r.Targets {
		if t.BuildDirectory != "" && !slices.Contains(f.outputDirs, t.BuildDirectory) {
			f.outputDirs = append(f.outputDirs, t.BuildDirectory)
		}
		for _, o := range t.Objects {
			if !slices.Contains(f.objects, o) {
				f.objects = append(f.objects, o)
			}
		}
	}
}

// generated reports whether path is ignored or was written by a build
func (f *changeFilter) generated(path string) bool {
	if watchIgnored(f.root, path, f.ignored) {
		return true
	}
	for _, dir := range f.outputDirs {
		if within(dir, path) {
			return true
		}
	}
	for _, pattern := range f.objects {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// settling reports whether now falls in the quiet period after a build.
// Events the build caused are still queued in the watcher when it returns.
func (f *changeFilter) settling(now time.Time) bool {
	return now.Before(f.quietUntil)
}

// within reports whether path is dir or lies below it
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
