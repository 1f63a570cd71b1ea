package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/KaramelBytes/reportloom/internal/ai"
	"github.com/spf13/cobra"
)

var providersJSON bool

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List text-generation providers and their default models",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := ai.Providers()
		if providersJSON {
			m := make(map[string]string, len(names))
			for _, n := range names {
				m[n] = ai.DefaultModel(n)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		}
		current := ""
		if c, err := ensureConfig(); err == nil {
			current = c.Provider
		}
		for _, n := range names {
			marker := " "
			if n == current {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %-11s %s\n", marker, n, ai.DefaultModel(n))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.Flags().BoolVar(&providersJSON, "json", false, "print as JSON")
}
