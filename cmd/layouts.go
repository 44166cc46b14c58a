package cmd

import (
	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/workflow"
)

var layoutsOpts workflow.LayoutsOptions

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "Fetch a document's layouts and show where each character sits",
	Long: `Upload a document, run OCR on it and download its layouts, or read a
layouts payload saved earlier (a local path or s3://bucket/key). Prints the
metadata of every page and the first characters with their page and bounding
box.`,
	Example: `  docai layouts --file upload_files/contract.pdf --out contract.layout
  docai layouts --layout s3://my-bucket/layouts/contract.layout --chars 40`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if layoutsOpts.Layout != "" {
			cfg, log, err := setup(cmd, false)
			if err != nil {
				return err
			}
			w := &workflow.Workflow{Blobs: blobsFor(cfg), Out: cmd.OutOrStdout(), Log: log}
			_, err = w.Layouts(cmd.Context(), layoutsOpts)
			return err
		}

		w, _, err := newWorkflow(cmd)
		if err != nil {
			return err
		}
		_, err = w.Layouts(cmd.Context(), layoutsOpts)
		return err
	},
}

func init() {
	layoutsCmd.Flags().StringVarP(&layoutsOpts.File, "file", "f", "", "Document to upload and OCR")
	layoutsCmd.Flags().StringVarP(&layoutsOpts.Layout, "layout", "l", "", "Existing layouts payload (path or s3:// URI)")
	layoutsCmd.Flags().IntVarP(&layoutsOpts.Chars, "chars", "n", workflow.DefaultChars, "Number of characters to print")
	layoutsCmd.Flags().StringVarP(&layoutsOpts.Out, "out", "o", "", "Save the layouts payload here (path or s3:// URI)")
	layoutsCmd.MarkFlagsMutuallyExclusive("file", "layout")
	layoutsCmd.MarkFlagsOneRequired("file", "layout")

	rootCmd.AddCommand(layoutsCmd)
}
