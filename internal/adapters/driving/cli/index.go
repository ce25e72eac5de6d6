package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/tome-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tome-cli/internal/logger"
)

// watchSettle is how long the watcher waits after the last write event
// before re-indexing. Editors and download tools write in bursts.
const watchSettle = 500 * time.Millisecond

var (
	indexCollection string
	indexWatch      bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a document into the vector store",
	Long: `Parses a document, captions its images, embeds the content, and
stores the chunks in the vector collection. Chunk IDs are stable, so
re-indexing an unchanged document overwrites existing points rather
than duplicating them.

With --watch, the command keeps running and re-indexes the document
whenever it changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexCollection, "collection", "c", "", "target collection (default from config)")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "re-index when the file changes")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	// The collection override must land before the backends are built;
	// the vector store client binds to its collection at creation.
	if indexCollection != "" {
		cfg.Vector.Collection = indexCollection
	}

	if ingestService == nil {
		cleanup, err := wireIngest()
		if err != nil {
			return err
		}
		defer cleanup()
	}

	if err := indexOnce(cmd.Context(), cmd, path); err != nil {
		return err
	}

	if indexWatch {
		return watchAndReindex(cmd.Context(), cmd, path)
	}
	return nil
}

// indexOnce runs the full indexing pipeline for one document,
// rendering per-stage progress.
func indexOnce(ctx context.Context, cmd *cobra.Command, path string) error {
	var (
		bar      *progressbar.ProgressBar
		barStage string
	)

	req := driving.IndexRequest{
		Path: path,
		Progress: func(stage string, done, total int) {
			if total == 0 {
				return
			}
			if bar == nil || stage != barStage {
				if bar != nil {
					_ = bar.Finish()
				}
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription(stage),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
				barStage = stage
			}
			_ = bar.Set(done)
		},
	}

	report, err := ingestService.Index(ctx, req)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Indexed %s: %d chunks in collection %q (%s, %d dimensions)\n",
		report.DocumentID, report.ChunksIndexed, report.Collection,
		report.EmbeddingModel, report.Dimensions)
	if report.FragmentsSkipped > 0 {
		cmd.Printf("Skipped %d fragments; run with --verbose for details.\n", report.FragmentsSkipped)
	}
	return nil
}

// watchAndReindex blocks, re-indexing the document after each burst of
// file changes, until the context is cancelled.
func watchAndReindex(ctx context.Context, cmd *cobra.Command, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors typically write a
	// temp file and rename it over the original, which would drop a
	// watch held on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	cmd.Printf("Watching %s for changes. Press Ctrl+C to stop.\n", path)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			eventAbs, err := filepath.Abs(event.Name)
			if err != nil || eventAbs != abs {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchSettle)
				timerC = timer.C
			} else {
				timer.Reset(watchSettle)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cmd.Printf("Change detected, re-indexing %s...\n", path)
			if err := indexOnce(ctx, cmd, path); err != nil {
				// Keep watching: a truncated half-written file parses
				// again on the next save.
				cmd.Printf("Re-index failed: %v\n", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}
