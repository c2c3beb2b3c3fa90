package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <reference>",
	Short: "Select the next playable for a reference",
	Long: `Resolve a reference and select exactly one next playable, applying
watch state (resume first, then rotation) and any scheduling filters.

Examples:
  omnicast play media:music/ambient
  omnicast play "catalog:morning; shuffle"
  omnicast play "plex:49915 | media:shows"`,
	Args: cobra.ExactArgs(1),
	RunE: runPlayCmd,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlayCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	item, err := client.Play(args[0])
	if err != nil {
		return fmt.Errorf("play failed: %w", err)
	}

	if jsonOutput {
		printJSON(item)
		return nil
	}

	fmt.Printf("%s\n", item.Title)
	fmt.Printf("  id:     %s\n", item.ID)
	if item.Play != nil {
		fmt.Printf("  type:   %s\n", item.Play.MediaType)
		fmt.Printf("  stream: %s%s\n", serverURL, item.Play.MediaURL)
		if d := time.Duration(item.Play.Duration); d > 0 {
			fmt.Printf("  length: %s\n", d.Round(time.Second))
		}
		if p := time.Duration(item.Play.ResumePosition); p > 0 {
			fmt.Printf("  resume: %s\n", p.Round(time.Second))
		}
	}
	return nil
}
