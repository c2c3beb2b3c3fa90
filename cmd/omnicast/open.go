package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <reference>",
	Short: "Resolve a single item for viewing",
	Long: `Resolve a reference to one item and show how it should be opened.

Examples:
  omnicast open catalog:morning/recipes
  omnicast open media:movies`,
	Args: cobra.ExactArgs(1),
	RunE: runOpenCmd,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpenCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	item, err := client.Open(args[0])
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}

	if jsonOutput {
		printJSON(item)
		return nil
	}

	fmt.Printf("%s\n", item.Title)
	fmt.Printf("  id: %s\n", item.ID)
	if item.Description != "" {
		fmt.Printf("  %s\n", item.Description)
	}
	if item.Open != nil {
		fmt.Printf("  open: %s (%s)\n", item.Open.URL, item.Open.Type)
	}
	if item.List != nil && item.List.Type == "container" {
		fmt.Printf("  children: %d\n", item.List.ChildCount)
	}
	return nil
}
