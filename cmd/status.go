package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the index state for the current project",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend()
		if err != nil {
			return err
		}
		defer b.Close()

		fmt.Printf("Project:            %s\n", b.projectID)
		fmt.Printf("Index current:      %v\n", b.registry.IsIndexed(b.projectID))
		fmt.Printf("Indexation running: %v\n", b.registry.IndexationIsProcessing(b.projectID))
		fmt.Printf("Chunks in index:    %d\n", b.store.Count())

		if meta, ok := b.registry.IndexedProjects()[b.projectID]; ok {
			fmt.Printf("Last indexed:       %s\n", meta.LastIndexedDate.Format("2006-01-02"))
			fmt.Printf("Marked corrupted:   %v\n", meta.Corrupted)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
