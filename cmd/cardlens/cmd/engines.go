package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardlens/cardlens/internal/ocr"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List available recognition engines",
	Long: `Engines lists the recognition backends linked into this build.

Backends are selected at compile time with build tags; a build without
any backend can still manage cards but cannot scan.`,
	RunE: runEngines,
}

func init() {
	enginesCmd.Flags().StringP("format", "f", "text", "output format (text, json)")

	rootCmd.AddCommand(enginesCmd)
}

func runEngines(cmd *cobra.Command, _ []string) error {
	registry := ocr.NewRegistry()
	for _, e := range ocr.PlatformEngines() {
		registry.Register(e)
	}
	descriptors := registry.Available()

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		b, err := json.MarshalIndent(descriptors, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	case "text":
		if len(descriptors) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No recognition engines linked into this build.")
			return nil
		}
		for _, d := range descriptors {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s", d.ID, d.Name, d.Version)
			if len(d.Languages) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\t[%s]", strings.Join(d.Languages, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}
