package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <reference>",
	Short: "List the children of a container",
	Long: `List the children of a container on any configured source.

Examples:
  omnicast list media:music/ambient
  omnicast list plex:49915
  omnicast list "catalog:morning"
  omnicast list "media:music,playable"`,
	Args: cobra.ExactArgs(1),
	RunE: runListCmd,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runListCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	resp, err := client.List(args[0])
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if len(resp.Items) == 0 {
		fmt.Println("No items.")
		return nil
	}
	for _, it := range resp.Items {
		fmt.Printf("  %-12s %-40s %s\n", itemKind(&it), it.ID, it.Title)
	}
	fmt.Printf("\n%d items\n", len(resp.Items))
	return nil
}

// itemKind summarizes an item's capabilities for table output.
func itemKind(it *ItemResponse) string {
	var kinds []string
	if it.List != nil && it.List.Type == "container" {
		kinds = append(kinds, "dir")
	}
	if it.Play != nil {
		kinds = append(kinds, it.Play.MediaType)
	}
	if it.Open != nil {
		kinds = append(kinds, "open")
	}
	if len(kinds) == 0 {
		return "-"
	}
	return strings.Join(kinds, ",")
}
