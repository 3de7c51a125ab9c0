package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cardlens/cardlens/internal/ocr"
	"github.com/cardlens/cardlens/internal/pipeline"
)

// Run reads the given image files and scans them as one batch.
// Unreadable files enter the batch as empty inputs so they surface as
// per-item failures instead of aborting the run.
func Run(ctx context.Context, scanner *pipeline.Scanner, paths []string, opts ocr.Options, progress pipeline.ProgressCallback) pipeline.BatchResult {
	inputs := make([]pipeline.BatchInput, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // paths come from CLI arguments
		if err != nil {
			data = nil
		}
		inputs = append(inputs, pipeline.BatchInput{Source: path, Data: data})
	}
	return scanner.ScanBatch(ctx, inputs, opts, progress)
}

// Summary renders the one-line batch outcome for the console.
func Summary(result pipeline.BatchResult) string {
	return fmt.Sprintf("%d scanned, %d failed (%.0f%% success) in %v",
		len(result.Successful), len(result.Failed),
		result.SuccessRate()*100, result.Duration.Round(time.Millisecond))
}
