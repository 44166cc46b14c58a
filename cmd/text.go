package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/workflow"
)

var (
	textLayout string
	textStart  int
	textEnd    int
	textPage   int
)

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Print the text of a layouts payload",
	Long: `Print the text of a character range, of one page, or of the whole
document. Ranges are half-open: --start 0 --end 15 prints characters 0 to 14.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd, false)
		if err != nil {
			return err
		}
		x, err := workflow.LoadIndex(cmd.Context(), blobsFor(cfg), textLayout)
		if err != nil {
			return err
		}

		var text string
		switch {
		case textPage > 0:
			text, err = x.PageText(textPage)
		default:
			end := textEnd
			if end < 0 {
				end = x.Len()
			}
			text, err = x.TextForRange(textStart, end)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	textCmd.Flags().StringVarP(&textLayout, "layout", "l", "", "Layouts payload (path or s3:// URI)")
	textCmd.Flags().IntVar(&textStart, "start", 0, "First character index")
	textCmd.Flags().IntVar(&textEnd, "end", -1, "End character index, exclusive (-1 = end of document)")
	textCmd.Flags().IntVarP(&textPage, "page", "p", 0, "Print only this page (1-based)")
	textCmd.MarkFlagRequired("layout")
	textCmd.MarkFlagsMutuallyExclusive("page", "start")
	textCmd.MarkFlagsMutuallyExclusive("page", "end")

	rootCmd.AddCommand(textCmd)
}
