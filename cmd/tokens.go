package cmd

import (
	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/ui"
	"github.com/itsmostafa/docai/internal/workflow"
)

var (
	tokensLayout string
	tokensPage   int
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the words of a page with their boxes and line numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup(cmd, false)
		if err != nil {
			return err
		}
		x, err := workflow.LoadIndex(cmd.Context(), blobsFor(cfg), tokensLayout)
		if err != nil {
			return err
		}
		tokens, err := x.PageTokens(tokensPage)
		if err != nil {
			return err
		}
		ui.FormatTokens(cmd.OutOrStdout(), x, tokensPage, tokens)
		return nil
	},
}

func init() {
	tokensCmd.Flags().StringVarP(&tokensLayout, "layout", "l", "", "Layouts payload (path or s3:// URI)")
	tokensCmd.Flags().IntVarP(&tokensPage, "page", "p", 1, "Page number (1-based)")
	tokensCmd.MarkFlagRequired("layout")

	rootCmd.AddCommand(tokensCmd)
}
