package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/recall-dev/recall/internal/progress"
	"github.com/recall-dev/recall/internal/walker"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the project into the local vector database",
	Long: `Walks the project, selects eligible files and indexes them into the
local vector database. A project whose index is current is skipped
unless --force is given.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("force", false, "reindex even when the index is current")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	force, _ := cmd.Flags().GetBool("force")

	if b.registry.IndexationIsProcessing(b.projectID) {
		return fmt.Errorf("an indexation is already running for this project")
	}
	if !force && b.registry.IsIndexed(b.projectID) {
		fmt.Println("Index is current; nothing to do. Use --force to reindex.")
		return nil
	}

	b.registry.MarkAsCurrentIndexation(b.projectID)
	defer b.registry.RemoveFromCurrentIndexation(b.projectID)

	files, limitReached, err := walker.Walk(b.walkCfg)
	if err != nil {
		return fmt.Errorf("walking project: %w", err)
	}
	if limitReached {
		fmt.Fprintf(os.Stderr, "Warning: file limit reached; only the first %d files will be indexed\n", len(files))
	}
	if len(files) == 0 {
		fmt.Println("No eligible files found.")
		return nil
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	queued := b.pipeline.EnqueueAll(paths)

	reporter := progress.NewReporter()
	reporter.Start(queued)

	processed := 0
	b.pipeline.Flush(ctx, func() bool { return ctx.Err() != nil }, func(batch int) {
		processed += batch
		reporter.Update(processed, fmt.Sprintf("%d/%d files", processed, queued))
	})
	reporter.Finish()

	if ctx.Err() != nil {
		return fmt.Errorf("indexing interrupted with %d files still queued", b.pipeline.QueueLen())
	}

	if err := b.registry.MarkAsIndexed(b.projectID); err != nil {
		return fmt.Errorf("recording indexation: %w", err)
	}

	fmt.Printf("Indexed %d files (%d chunks) in %s\n",
		b.pipeline.TotalIndexed(), b.store.Count(), time.Since(start).Round(time.Millisecond))
	return nil
}
