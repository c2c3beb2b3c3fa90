package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue <reference>",
	Short: "Show the full playback order for a reference",
	Long: `Resolve a reference into its full ordered set of playables, per the
container's traversal mode.

Examples:
  omnicast queue media:music/ambient
  omnicast queue "catalog:morning,recent_on_top"`,
	Args: cobra.ExactArgs(1),
	RunE: runQueueCmd,
}

func init() {
	rootCmd.AddCommand(queueCmd)
}

func runQueueCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	resp, err := client.Queue(args[0])
	if err != nil {
		return fmt.Errorf("queue failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	for i, it := range resp.Items {
		marker := " "
		if it.Play != nil && it.Play.ResumePosition > 0 {
			marker = "*"
		}
		line := fmt.Sprintf("%3d %s %-40s %s", i+1, marker, it.ID, it.Title)
		if it.Play != nil && it.Play.Duration > 0 {
			line += fmt.Sprintf("  (%s)", time.Duration(it.Play.Duration).Round(time.Second))
		}
		fmt.Println(line)
	}
	fmt.Printf("\n%d items (* = in progress)\n", len(resp.Items))
	return nil
}
