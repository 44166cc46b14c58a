package cmd

import (
	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/fuzzy"
	"github.com/itsmostafa/docai/internal/workflow"
)

var trainOpts workflow.TrainOptions

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a custom field from annotated example documents",
	Long: `Read a CSV of file names and annotation text, upload and OCR each file,
find each annotation in the OCR text with a fuzzy search, then create a new
field, train it and report its accuracy, metadata and validation details.
Rows with an empty annotation are negative examples.`,
	Example: `  docai train --examples training_examples.csv --dir upload_files
  docai train --examples training_examples.csv --field-name "Further Assurances" --test-file NATURADEIN-8KUnschedu-892005.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, _, err := newWorkflow(cmd)
		if err != nil {
			return err
		}
		_, err = w.Train(cmd.Context(), trainOpts)
		return err
	},
}

func init() {
	trainCmd.Flags().StringVarP(&trainOpts.Examples, "examples", "e", "training_examples.csv", "CSV of file name and annotation")
	trainCmd.Flags().StringVarP(&trainOpts.Dir, "dir", "d", "upload_files", "Directory holding the example files")
	trainCmd.Flags().StringVar(&trainOpts.FieldName, "field-name", workflow.DefaultFieldName, "Name of the field to create")
	trainCmd.Flags().StringVar(&trainOpts.Description, "description", "", "Description of the field")
	trainCmd.Flags().IntVar(&trainOpts.MaxDistance, "max-distance", fuzzy.DefaultMaxDistance, "Maximum edit distance for an annotation match (0 for exact)")
	trainCmd.Flags().StringVar(&trainOpts.TextSource, "text-source", workflow.TextFromLayouts, "Where annotation offsets come from (layouts, text)")
	trainCmd.Flags().StringVar(&trainOpts.TestFile, "test-file", "", "Extract this file with the trained field")

	rootCmd.AddCommand(trainCmd)
}
