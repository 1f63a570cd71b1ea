package cmd

import (
	"fmt"

	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	profileSheet   string
	profileMaxRows int
	profileJSON    bool
	profileOutput  string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Summarize a dataset's columns (types, missing values, stats, outliers)",
	Example: `  reportloom profile sales.csv
  reportloom profile book.xlsx --sheet Q3 --json -o profile.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if f := cmd.Flags(); f != nil {
			provided := map[string]bool{}
			f.Visit(func(fl *pflag.Flag) { provided[fl.Name] = true })
			if !provided["json"] {
				profileJSON = false
			}
			if !provided["output"] {
				profileOutput = ""
			}
		}
		opt := dataset.DefaultOptions()
		opt.Sheet = profileSheet
		opt.MaxRows = profileMaxRows
		ds, err := dataset.Load(cmd.Context(), dataset.Source{File: args[0]}, opt)
		if err != nil {
			return err
		}
		prof := ds.Profile()
		out := prof.Markdown()
		if profileJSON {
			b, err := utils.PrettyJSON(prof)
			if err != nil {
				return err
			}
			out = string(b) + "\n"
		}
		if profileOutput != "" {
			if err := utils.SafeWriteFile(profileOutput, []byte(out)); err != nil {
				return fmt.Errorf("write profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile for %s (%d rows) to %s\n", ds.Name, ds.Rows, profileOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVar(&profileSheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	profileCmd.Flags().IntVar(&profileMaxRows, "max-rows", 0, "limit rows read (0 = all)")
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "print the profile as JSON")
	profileCmd.Flags().StringVarP(&profileOutput, "output", "o", "", "write the profile to a file instead of stdout")
}
