package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/batch"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/pdf"
	"github.com/cardlens/cardlens/internal/pipeline"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf [file.pdf]",
	Short: "Scan card images embedded in a PDF",
	Long: `Pdf extracts the images embedded in a PDF (for example a scanned
card sheet) and runs each through recognition.

Examples:
  cardlens pdf sheet.pdf
  cardlens pdf sheet.pdf --pages 2-5 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func init() {
	pdfCmd.Flags().String("pages", "", "page range to process, e.g. \"1-3\" or \"2\" (default all)")
	pdfCmd.Flags().Bool("save", false, "persist scan results to history")
	pdfCmd.Flags().StringP("format", "f", "", "output format (text, json, csv, yaml)")
	pdfCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")

	rootCmd.AddCommand(pdfCmd)
}

func runPDF(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	pages, _ := cmd.Flags().GetString("pages")
	images, err := pdf.ExtractPageImages(args[0], pages)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return errx.New(errx.KindValidation, "no images found in PDF").
			WithUser("The PDF contains no extractable images in the selected pages.")
	}

	scanner, cleanup, err := buildScanner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	base := filepath.Base(args[0])
	inputs := make([]pipeline.BatchInput, 0, len(images))
	for _, img := range images {
		inputs = append(inputs, pipeline.BatchInput{
			Source: fmt.Sprintf("%s#page=%d,img=%d", base, img.Page, img.Index),
			Data:   img.Data,
		})
	}

	save, _ := cmd.Flags().GetBool("save")
	opts := scanOptions(cfg, save)

	progress := pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Scanning")
	result := scanner.ScanBatch(cmd.Context(), inputs, opts, progress)

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
