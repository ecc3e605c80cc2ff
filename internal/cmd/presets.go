package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available prompt presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := buildRegistry()
		if err != nil {
			return err
		}

		presets := registry.List()
		if len(presets) == 0 {
			fmt.Println("(no presets available)")
			return nil
		}

		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Slug", "Name", "Model", "Description"})
		for _, preset := range presets {
			tw.AppendRow(table.Row{
				preset.Config.Slug,
				preset.Config.Name,
				preset.Config.Model,
				preset.Config.Description,
			})
		}
		fmt.Println(tw.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
