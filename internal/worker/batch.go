package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/claimflow/internal/model"
)

// ErrNotProcessed marks a batch entry that never started because the batch was canceled
var ErrNotProcessed = errors.New("claim not processed")

// Runner processes one claim submission to a terminal log
type Runner interface {
	Run(ctx context.Context, submissionID string, sub model.ClaimSubmission) *model.OrchestrationLog
}

// Entry is one submission read from a batch file
type Entry struct {
	Line       int
	Submission model.ClaimSubmission
}

// ClaimJob runs one batch entry through the orchestrator
type ClaimJob struct {
	Index        int
	Entry        Entry
	SubmissionID string
	Runner       Runner
}

// Execute runs the claim
func (j *ClaimJob) Execute(ctx context.Context) Result {
	log := j.Runner.Run(ctx, j.SubmissionID, j.Entry.Submission)
	return &ClaimResult{
		Index:        j.Index,
		Line:         j.Entry.Line,
		SubmissionID: j.SubmissionID,
		Log:          log,
		Error:        logError(log),
	}
}

// ClaimResult is the outcome of one batch entry
type ClaimResult struct {
	Index        int
	Line         int
	SubmissionID string
	Log          *model.OrchestrationLog
	Error        error
}

// GetError returns the error from the claim result
func (r *ClaimResult) GetError() error {
	return r.Error
}

// logError turns a non-complete run into an error
func logError(log *model.OrchestrationLog) error {
	if log == nil {
		return errors.New("orchestrator returned no log")
	}
	if log.Status == model.StatusComplete {
		return nil
	}
	if log.Error == "" {
		return errors.New(string(log.Status))
	}
	return fmt.Errorf("%s: %s", log.Status, log.Error)
}

// BatchProcessor processes many submissions concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessEntries runs every entry and returns the results in input order
func (b *BatchProcessor) ProcessEntries(ctx context.Context, entries []Entry) []*ClaimResult {
	if len(entries) == 0 {
		return []*ClaimResult{}
	}

	jobs := make([]Job, len(entries))
	for i, entry := range entries {
		jobs[i] = &ClaimJob{
			Index:        i,
			Entry:        entry,
			SubmissionID: uuid.NewString(),
			Runner:       b.runner,
		}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	results := pool.Run(jobs)

	out := make([]*ClaimResult, len(entries))
	for _, r := range results {
		cr := r.(*ClaimResult)
		out[cr.Index] = cr
	}
	for i, r := range out {
		if r == nil {
			job := jobs[i].(*ClaimJob)
			out[i] = &ClaimResult{
				Index:        i,
				Line:         job.Entry.Line,
				SubmissionID: job.SubmissionID,
				Error:        ErrNotProcessed,
			}
		}
	}
	return out
}

// ProcessFile reads submissions from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	entries, err := ReadSubmissionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read submissions: %w", err)
	}

	return b.ProcessEntries(ctx, entries), nil
}

// ReadSubmissionsFromFile reads claim submissions, either one JSON object per
// line or a single JSON array. Blank lines and # comments are skipped.
func ReadSubmissionsFromFile(filePath string) ([]Entry, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		var subs []model.ClaimSubmission
		if err := json.Unmarshal(data, &subs); err != nil {
			return nil, fmt.Errorf("decode submission array: %w", err)
		}
		entries := make([]Entry, len(subs))
		for i, sub := range subs {
			entries[i] = Entry{Line: i + 1, Submission: sub}
		}
		return entries, nil
	}

	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var sub model.ClaimSubmission
		if err := json.Unmarshal([]byte(text), &sub); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, Entry{Line: line, Submission: sub})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return entries, nil
}
