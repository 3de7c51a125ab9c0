package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/batch"
	"github.com/cardlens/cardlens/internal/card"
	"github.com/cardlens/cardlens/internal/errx"
	"github.com/cardlens/cardlens/internal/imageio"
	"github.com/cardlens/cardlens/internal/ocr"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image]",
	Short: "Scan a single business card image",
	Long: `Scan recognizes text on a single card image and prints the result.

With --card, the recognized text is additionally parsed into structured
contact fields (name, company, email, phone, website).

Examples:
  cardlens scan card.jpg
  cardlens scan card.jpg --card
  cardlens scan card.jpg --card --format json --save`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Bool("card", false, "extract structured contact fields")
	scanCmd.Flags().Bool("save", false, "persist the scan result to history")
	scanCmd.Flags().StringP("format", "f", "", "output format (text, json, csv, yaml)")
	scanCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	path := args[0]
	if !imageio.IsSupportedPath(path) {
		return errx.New(errx.KindUnsupportedFormat,
			fmt.Sprintf("unsupported image format: %s", path)).
			WithUser(fmt.Sprintf("Unsupported file type. Supported: %s",
				strings.Join(imageio.SupportedExtensions, ", ")))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errx.Wrap(errx.KindDataSource, err, "read image")
	}

	scanner, cleanup, err := buildScanner(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	save, _ := cmd.Flags().GetBool("save")
	asCard, _ := cmd.Flags().GetBool("card")
	opts := scanOptions(cfg, save)

	format := cfg.Output.Format
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		format = f
	}

	var out string
	if asCard {
		cs, err := scanner.ScanToCard(cmd.Context(), data, opts)
		if err != nil {
			return err
		}
		out, err = batch.FormatCards([]card.BusinessCard{cs.Card}, format)
		if err != nil {
			return err
		}
	} else {
		result, err := scanner.Scan(cmd.Context(), data, opts)
		if err != nil {
			return err
		}
		out, err = formatResult(result, format)
		if err != nil {
			return err
		}
	}

	return writeOutput(cmd, out)
}

func formatResult(r ocr.Result, format string) (string, error) {
	switch format {
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", errx.Wrap(errx.KindProcessing, err, "encode result")
		}
		return string(b) + "\n", nil
	case "text", "":
		var sb strings.Builder
		fmt.Fprintf(&sb, "Engine:     %s\n", r.Engine)
		fmt.Fprintf(&sb, "Confidence: %.2f\n", r.Confidence)
		fmt.Fprintf(&sb, "Blocks:     %d\n\n", len(r.DetectedTexts))
		sb.WriteString(r.RawText)
		if !strings.HasSuffix(r.RawText, "\n") {
			sb.WriteString("\n")
		}
		return sb.String(), nil
	default:
		return "", errx.New(errx.KindValidation,
			fmt.Sprintf("unsupported scan output format %q", format))
	}
}

// writeOutput prints to stdout or, with --output, to a file.
func writeOutput(cmd *cobra.Command, out string) error {
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return errx.Wrap(errx.KindDataSource, err, "write output file")
		}
		return nil
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}
