package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cardlens/cardlens/internal/common"
	"github.com/cardlens/cardlens/internal/ocr"
)

// BatchInput is one image queued for batch scanning. Source is a
// caller-side label (usually a file path) carried through to the output.
type BatchInput struct {
	Source string
	Data   []byte
}

// BatchItem is one successfully scanned batch entry.
type BatchItem struct {
	Index  int
	Source string
	Result ocr.Result
}

// BatchFailure is one batch entry that could not be scanned at all.
type BatchFailure struct {
	Index  int
	Source string
	Err    error
}

// BatchResult aggregates a batch run. One failing item never aborts the
// rest of the batch.
type BatchResult struct {
	Successful []BatchItem
	Failed     []BatchFailure
	Duration   time.Duration
}

// Total returns the number of items processed.
func (r BatchResult) Total() int { return len(r.Successful) + len(r.Failed) }

// SuccessRate returns the fraction of items scanned successfully.
// An empty batch has rate 0.
func (r BatchResult) SuccessRate() float64 {
	total := r.Total()
	if total == 0 {
		return 0.0
	}
	return float64(len(r.Successful)) / float64(total)
}

type batchJob struct {
	index int
	input BatchInput
}

type batchOutcome struct {
	index  int
	result ocr.Result
	err    error
}

// ScanBatch scans a set of images concurrently using the configured
// worker count. Outputs preserve input order within the successful and
// failed slices. A canceled context marks the remaining items as failed
// rather than returning an error.
func (s *Scanner) ScanBatch(ctx context.Context, inputs []BatchInput, opts ocr.Options, progress ProgressCallback) BatchResult {
	timer := common.NewNamedTimer("batch")
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	if len(inputs) == 0 {
		return BatchResult{Duration: timer.Stop()}
	}

	progress.OnStart(len(inputs))
	defer progress.OnComplete()

	workers := s.workers
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan batchJob, len(inputs))
	outcomes := make(chan batchOutcome, len(inputs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					outcomes <- batchOutcome{index: job.index, err: err}
					continue
				}
				// The strict path: a throwing recognizer fails the
				// item instead of degrading it.
				result, err := s.scan(ctx, job.input.Data, opts)
				outcomes <- batchOutcome{index: job.index, result: result, err: err}
			}
		}()
	}

	for i, input := range inputs {
		jobs <- batchJob{index: i, input: input}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var out BatchResult
	processed := 0
	for o := range outcomes {
		processed++
		source := inputs[o.index].Source
		if o.err != nil {
			s.logger.Warn("batch item failed", "index", o.index, "source", source, "error", o.err)
			out.Failed = append(out.Failed, BatchFailure{Index: o.index, Source: source, Err: o.err})
			progress.OnError(processed, o.err)
		} else {
			out.Successful = append(out.Successful, BatchItem{Index: o.index, Source: source, Result: o.result})
		}
		progress.OnProgress(processed, len(inputs))
	}

	sort.Slice(out.Successful, func(i, j int) bool { return out.Successful[i].Index < out.Successful[j].Index })
	sort.Slice(out.Failed, func(i, j int) bool { return out.Failed[i].Index < out.Failed[j].Index })

	out.Duration = timer.Stop()
	return out
}
