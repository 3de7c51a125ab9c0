package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/batch"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/pipeline"
)

var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Scan multiple card images",
	Long: `Batch scans multiple images concurrently. Arguments may be files,
directories, or a mix; directories are expanded to the supported image
files they contain. One failing image never aborts the rest of the run.

Examples:
  cardlens batch ./scans
  cardlens batch ./scans --recursive --format csv --output results.csv
  cardlens batch a.jpg b.png --include "card_*.png"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns of file names to include")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns of file names to exclude")
	batchCmd.Flags().Bool("save", false, "persist scan results to history")
	batchCmd.Flags().Bool("quiet", false, "suppress the progress bar")
	batchCmd.Flags().StringP("format", "f", "", "output format (text, json, csv, yaml)")
	batchCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	recursive, _ := cmd.Flags().GetBool("recursive")
	if cfg.Batch.Recursive {
		recursive = true
	}
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	paths, err := batch.Discover(args, recursive, include, exclude)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errx.New(errx.KindValidation, "no supported images found").
			WithUser("No supported image files found in the given paths.")
	}

	scanner, cleanup, err := buildScanner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	save, _ := cmd.Flags().GetBool("save")
	opts := scanOptions(cfg, save)

	var progress pipeline.ProgressCallback = &pipeline.NoOpProgressCallback{}
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		progress = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Scanning")
	}

	result := batch.Run(cmd.Context(), scanner, paths, opts, progress)

	format := cfg.Output.Format
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		format = f
	}

	out, err := batch.Format(result, format)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, out); err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), batch.Summary(result))
	return nil
}
