package cmd

import (
	"github.com/spf13/cobra"

	"github.com/itsmostafa/docai/internal/store"
	"github.com/itsmostafa/docai/internal/workflow"
)

var (
	spreadsheetOpts   workflow.SpreadsheetOptions
	spreadsheetFields []string
	databaseURL       string
)

var spreadsheetCmd = &cobra.Command{
	Use:   "spreadsheet",
	Short: "Extract fields from a directory of documents into a spreadsheet",
	Long: `Upload every file in a directory, detect its language, classify it and
extract the chosen fields, then write one row per extracted span to an XLSX
workbook (or CSV when the output ends in .csv). Rows can also be stored in
Postgres with --database-url or DATABASE_URL.

A run interrupted while waiting can be continued with --resume latest.`,
	Example: `  docai spreadsheet --dir upload_files
  docai spreadsheet --dir upload_files --fields Title,Parties --out s3://reports/run.xlsx --csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w, cfg, err := newWorkflow(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		spreadsheetOpts.Fields = spreadsheetFields
		if !cmd.Flags().Changed("fields") && len(cfg.Fields) > 0 {
			spreadsheetOpts.Fields = cfg.Fields
		}

		dsn := cfg.DatabaseURL
		if databaseURL != "" {
			dsn = databaseURL
		}
		if dsn != "" {
			sink, err := store.OpenResultSink(ctx, dsn)
			if err != nil {
				return err
			}
			defer sink.Close()
			spreadsheetOpts.Sink = sink
		}

		_, err = w.Spreadsheet(ctx, spreadsheetOpts)
		return err
	},
}

func init() {
	spreadsheetCmd.Flags().StringVarP(&spreadsheetOpts.Dir, "dir", "d", "upload_files", "Directory of documents to upload")
	spreadsheetCmd.Flags().StringSliceVar(&spreadsheetFields, "fields", workflow.DefaultFields, "Field names to extract")
	spreadsheetCmd.Flags().StringVarP(&spreadsheetOpts.Out, "out", "o", workflow.DefaultOutput, "Output workbook (path or s3:// URI)")
	spreadsheetCmd.Flags().BoolVar(&spreadsheetOpts.CSV, "csv", false, "Also write a CSV copy")
	spreadsheetCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres DSN to store rows in")
	spreadsheetCmd.Flags().StringVar(&spreadsheetOpts.Resume, "resume", "", "Resume a run by id, or \"latest\"")

	rootCmd.AddCommand(spreadsheetCmd)
}
