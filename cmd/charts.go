package cmd

import (
	"fmt"

	"github.com/KaramelBytes/reportloom/internal/charts"
	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	chartsSheet   string
	chartsMaxRows int
)

var chartsCmd = &cobra.Command{
	Use:   "charts <file>",
	Short: "Show which charts a dataset would get, as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		opt := dataset.DefaultOptions()
		opt.Sheet = chartsSheet
		opt.MaxRows = chartsMaxRows
		ds, err := dataset.Load(cmd.Context(), dataset.Source{File: args[0]}, opt)
		if err != nil {
			return err
		}
		sel := charts.NewSelector()
		sel.Aliases = c.Aliases()
		if c.WorldGeoJSONURL != "" {
			sel.WorldGeoJSONURL = c.WorldGeoJSONURL
		}
		if c.RegionalGeoJSONURL != "" {
			sel.RegionalGeoJSONURL = c.RegionalGeoJSONURL
		}
		b, err := utils.PrettyJSON(sel.Select(ds))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
	chartsCmd.Flags().StringVar(&chartsSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	chartsCmd.Flags().IntVar(&chartsMaxRows, "max-rows", 0, "limit rows read (0 = all)")
}
