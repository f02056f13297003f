package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/warnscan/internal/parser"
	"github.com/ludo-technologies/warnscan/service"
)

type toolListing struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DefaultPattern    string `json:"default_pattern"`
	CanScanConsoleLog bool   `json:"console_log"`
}

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the supported tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			noColor, _ := cmd.Flags().GetBool("no-color")

			var listing []toolListing
			for _, tool := range parser.Tools() {
				listing = append(listing, toolListing{
					ID:                tool.ID,
					Name:              tool.Name,
					DefaultPattern:    tool.DefaultPattern,
					CanScanConsoleLog: tool.CanScanConsoleLog,
				})
			}

			if asJSON {
				return service.WriteJSON(cmd.OutOrStdout(), listing)
			}

			header := lipgloss.NewStyle().Bold(true)
			if noColor {
				header = lipgloss.NewStyle()
			}

			fmt.Fprintln(cmd.OutOrStdout(), header.Render(fmt.Sprintf("Supported tools (%d)", len(listing))))
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDEFAULT PATTERN\tCONSOLE LOG")
			for _, t := range listing {
				console := "no"
				if t.CanScanConsoleLog {
					console = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.DefaultPattern, console)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Bool("json", false, "Output the tool list as JSON")
	cmd.Flags().Bool("no-color", false, "Disable styled output")
	return cmd
}
