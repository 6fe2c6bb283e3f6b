package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jg-phare/chunkfold/pkg/stream"
)

const watchDebounce = 200 * time.Millisecond

// replayResult is what replay prints per recording when several match.
type replayResult struct {
	File     string `json:"file"`
	Snapshot any    `json:"snapshot,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (a *app) replayCommand() *cobra.Command {
	var (
		kindName string
		watch    bool
	)
	cmd := &cobra.Command{
		Use:   "replay <pattern>...",
		Short: "Fold recorded event streams",
		Long: `Fold recorded event streams offline.

Patterns are doublestar globs ("runs/**/*.sse"). The chunk kind is detected
from the object field of the first chunk unless --kind is given. With several
recordings each result is printed as {"file", "snapshot", "error"}.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandPatterns(args)
			if err != nil {
				return err
			}
			var forced *kind
			if kindName != "" {
				k, err := lookupKind(kindName)
				if err != nil {
					return err
				}
				forced = &k
			}

			out, closeOut, err := a.printer()
			if err != nil {
				return err
			}
			defer closeOut()

			r := &replayer{app: a, out: out, forced: forced, wrap: len(files) > 1}
			failed, err := r.run(cmd.Context(), files)
			if err != nil {
				return err
			}
			if watch {
				return r.watch(cmd.Context(), files)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d recordings failed", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "chunk kind: "+kindNames())
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-fold recordings when they change")
	cmd.Flags().Int("concurrency", 0, "recordings folded in parallel")
	a.bindFlag("replay.concurrency", cmd.Flags().Lookup("concurrency"))
	return cmd
}

// expandPatterns resolves globs into a sorted, de-duplicated file list.
// A pattern without glob characters must name an existing file.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no recordings match %q", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

type replayer struct {
	app    *app
	out    *printer
	forced *kind
	wrap   bool

	mu sync.Mutex // serializes output
}

// run folds files concurrently and prints results in file order. It returns
// the number of recordings whose stream ended in an error.
func (r *replayer) run(ctx context.Context, files []string) (int, error) {
	results := make([]replayResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.app.cfg.Replay.Concurrency)
	for i, path := range files {
		g.Go(func() error {
			res, err := r.fold(gctx, path)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
		if err := r.print(res); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

// fold replays one recording. Stream errors are reported in the result;
// only failures to open the recording are returned.
func (r *replayer) fold(ctx context.Context, path string) (replayResult, error) {
	k, err := r.kindOf(path)
	if err != nil {
		return replayResult{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return replayResult{}, fmt.Errorf("open recording: %w", err)
	}

	log := r.app.log.WithFields(logrus.Fields{"file": path, "kind": k.name})
	snapshot, err := k.fold(ctx, f, stream.WithLogger(log), stream.WithID(filepath.Base(path)))
	res := replayResult{File: path, Snapshot: snapshot}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return replayResult{}, err
		}
		log.WithError(err).Warn("recording ended with an error")
		res.Error = err.Error()
	}
	return res, nil
}

func (r *replayer) kindOf(path string) (kind, error) {
	if r.forced != nil {
		return *r.forced, nil
	}
	return detectKind(path)
}

func (r *replayer) print(res replayResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wrap {
		return r.out.print(res)
	}
	if res.Snapshot == nil {
		return nil
	}
	return r.out.print(res.Snapshot)
}

// watch re-folds a recording after it stops changing for watchDebounce.
// It blocks until ctx is cancelled and any in-flight re-fold has printed.
func (r *replayer) watch(ctx context.Context, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	tracked := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		tracked[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	r.app.log.WithField("files", len(files)).Info("watching recordings")

	var (
		mu       sync.Mutex
		timers   = make(map[string]*time.Timer)
		stopping bool
		inflight sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		stopping = true
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
		inflight.Wait()
	}()

	refold := func(path string) {
		mu.Lock()
		if stopping {
			mu.Unlock()
			return
		}
		inflight.Add(1)
		mu.Unlock()
		defer inflight.Done()

		res, err := r.fold(ctx, path)
		if err != nil {
			if ctx.Err() == nil {
				r.app.log.WithError(err).WithField("file", path).Warn("replay failed")
			}
			return
		}
		if err := r.print(res); err != nil {
			r.app.log.WithError(err).Warn("print failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !tracked[event.Name] || event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			path := event.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Reset(watchDebounce)
			} else {
				timers[path] = time.AfterFunc(watchDebounce, func() { refold(path) })
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.app.log.WithError(err).Warn("watcher error")
		}
	}
}
