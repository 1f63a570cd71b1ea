package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/reportloom/internal/dataset"
	"github.com/KaramelBytes/reportloom/internal/pipeline"
	"github.com/KaramelBytes/reportloom/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	runFile     string
	runText     string
	runURL      string
	runQuestion string
	runTitle    string
	runProvider string
	runModel    string
	runOutDir   string
	runJSON     bool
	runPublish  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a dataset, explain it, chart it, and export PDF/DOCX reports",
	Example: `  reportloom run --file sales.csv --question "Which year was best?"
  reportloom run --url https://example.com/data.csv --provider ollama --model llama3.2
  reportloom run --text "$(cat data.csv)" --title "Q3 review" --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reset flags not given in THIS invocation so values do not leak between runs
		if f := cmd.Flags(); f != nil {
			provided := map[string]bool{}
			f.Visit(func(fl *pflag.Flag) { provided[fl.Name] = true })
			if !provided["json"] {
				runJSON = false
			}
			if !provided["publish"] {
				runPublish = false
			}
		}
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		p := newPipeline(c, pipelineOptions{
			Provider: runProvider,
			Model:    runModel,
			OutDir:   runOutDir,
			Publish:  runPublish,
		})
		res := p.Run(cmd.Context(), pipeline.Input{
			Source:   dataset.Source{File: runFile, Text: runText, URL: runURL},
			Question: runQuestion,
			Title:    runTitle,
		})
		if runJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
		} else {
			printSummary(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
		}
		if res.Failed(pipeline.KindDataLoad) != nil {
			return fmt.Errorf("%s", strings.TrimSpace(strings.TrimPrefix(res.Message, "⚠️")))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "dataset file (CSV, TSV, XLSX)")
	runCmd.Flags().StringVar(&runText, "text", "", "pasted CSV text")
	runCmd.Flags().StringVar(&runURL, "url", "", "URL of a CSV/XLSX dataset")
	runCmd.Flags().StringVarP(&runQuestion, "question", "q", "", "question for the narrative (default: explain the main trend)")
	runCmd.Flags().StringVarP(&runTitle, "title", "t", "", "report title")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "text-generation provider: openrouter|openai|gemini|ollama (overrides config)")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "model identifier (overrides config)")
	runCmd.Flags().StringVarP(&runOutDir, "out", "o", "", "output directory for charts and reports (overrides config)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the result as JSON")
	runCmd.Flags().BoolVar(&runPublish, "publish", false, "upload reports to the configured object storage")
}

func printSummary(out, errOut io.Writer, res *pipeline.Result) {
	if res.Message != "" {
		fmt.Fprintln(errOut, res.Message)
		return
	}
	fmt.Fprintf(out, "✓ %s\n", res.Title)
	if res.Primary != nil {
		fmt.Fprintf(out, "✓ Primary chart: %s\n", res.Primary.Title)
	}
	for _, c := range res.Panel {
		fmt.Fprintf(out, "  • %s\n", c.Title)
	}
	if res.Map != nil {
		fmt.Fprintf(out, "✓ Map: %s\n", res.Map.Title)
	}
	fmt.Fprintln(out, "\nNarrative:")
	fmt.Fprintln(out, res.Narrative)
	fmt.Fprintln(out)
	if res.PDFPath != "" {
		fmt.Fprintf(out, "✓ PDF:  %s\n", res.PDFPath)
		fmt.Fprintf(out, "✓ DOCX: %s\n", res.DOCXPath)
	}
	for _, u := range res.Published {
		fmt.Fprintf(out, "✓ Published %s\n", u)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(errOut, "⚠ %s\n", e)
	}
}
