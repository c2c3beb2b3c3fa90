package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress <item-id> <playhead>",
	Short: "Report playback progress for an item",
	Long: `Report a playback position for a compound item id. Positions are
durations ("12m30s"). Reports against non-resumable items are ignored
by the server.

Examples:
  omnicast progress media:music/ambient/rain.mp3 4m10s
  omnicast progress plex:49915 22m --duration 43m`,
	Args: cobra.ExactArgs(2),
	RunE: runProgressCmd,
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.Flags().Duration("duration", 0, "Total duration, if the server doesn't know it")
}

func runProgressCmd(cmd *cobra.Command, args []string) error {
	playhead, err := time.ParseDuration(args[1])
	if err != nil {
		return fmt.Errorf("invalid playhead %q: %w", args[1], err)
	}
	total, _ := cmd.Flags().GetDuration("duration")

	client := NewClient(serverURL)
	if err := client.Progress(args[0], playhead, total); err != nil {
		return fmt.Errorf("progress report failed: %w", err)
	}

	if !jsonOutput {
		fmt.Printf("Recorded %s for %s\n", playhead, args[0])
	}
	return nil
}
