package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/claimflow/internal/model"
)

// MockRunner implements Runner
type MockRunner struct {
	Status model.Status
	mu     sync.Mutex
	seen   map[string]bool
}

func (m *MockRunner) Run(ctx context.Context, submissionID string, sub model.ClaimSubmission) *model.OrchestrationLog {
	time.Sleep(5 * time.Millisecond) // Simulate work

	m.mu.Lock()
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	m.seen[submissionID] = true
	m.mu.Unlock()

	log := model.NewOrchestrationLog(submissionID, sub, model.ModeFixed, time.Now())
	log.Status = model.StatusComplete
	if m.Status != "" {
		log.Status = m.Status
		log.Error = "oracle unavailable"
		return log
	}
	log.FinalRecord = &model.ClaimRecord{ClaimID: "CLM001", SubmitterID: log.SubmitterID}
	return log
}

func entries(ids ...string) []Entry {
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{Line: i + 1, Submission: model.ClaimSubmission{ClaimFormData: model.ClaimForm{ID: id}}}
	}
	return out
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claims.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessEntries(t *testing.T) {
	runner := &MockRunner{}
	processor := NewBatchProcessor(runner, 2)

	results := processor.ProcessEntries(context.Background(), entries("u1", "u2", "u3"))

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for line %d: %v", res.Line, res.Error)
		}
		if res.Index != i || res.Line != i+1 {
			t.Errorf("result %d out of order: index %d line %d", i, res.Index, res.Line)
		}
		if res.Log == nil || res.Log.FinalRecord == nil {
			t.Errorf("expected final record for line %d", res.Line)
		}
		if res.SubmissionID == "" {
			t.Errorf("expected submission id for line %d", res.Line)
		}
	}
	if len(runner.seen) != 3 {
		t.Errorf("expected 3 distinct submission ids, got %d", len(runner.seen))
	}
}

func TestBatchProcessor_ProcessEntries_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockRunner{Status: model.StatusFailedAtValidation}, 2)

	results := processor.ProcessEntries(context.Background(), entries("u1"))

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Fatal("expected error, got nil")
	}
	if got := results[0].Error.Error(); got != "FAILED_AT_VALIDATION: oracle unavailable" {
		t.Errorf("unexpected error: %s", got)
	}
}

func TestBatchProcessor_ProcessEntries_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockRunner{}, 2)

	results := processor.ProcessEntries(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessEntries_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatchProcessor(&MockRunner{}, 2).ProcessEntries(ctx, entries("u1", "u2", "u3", "u4"))

	if len(results) != 4 {
		t.Fatalf("expected a result per entry, got %d", len(results))
	}
	for _, res := range results {
		if res.Error != nil && !errors.Is(res.Error, ErrNotProcessed) {
			t.Errorf("unexpected error: %v", res.Error)
		}
	}
}

func TestReadSubmissionsFromFile_JSONLines(t *testing.T) {
	path := writeFile(t, `{"text":"first","claimFormData":{"id":"u1","name":"Ana"}}
# comment

{"text":"second","claimFormData":"{\"id\":\"u2\"}"}
`)

	got, err := ReadSubmissionsFromFile(path)
	if err != nil {
		t.Fatalf("ReadSubmissionsFromFile failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Line != 1 || got[1].Line != 4 {
		t.Errorf("unexpected line numbers: %d, %d", got[0].Line, got[1].Line)
	}
	if got[0].Submission.ClaimFormData.Name != "Ana" {
		t.Errorf("unexpected name: %q", got[0].Submission.ClaimFormData.Name)
	}
	if got[1].Submission.SubmitterID() != "u2" {
		t.Errorf("expected double-encoded form to decode, got submitter %q", got[1].Submission.SubmitterID())
	}
}

func TestReadSubmissionsFromFile_Array(t *testing.T) {
	path := writeFile(t, `[{"text":"a"},{"text":"b"},{"text":"c"}]`)

	got, err := ReadSubmissionsFromFile(path)
	if err != nil {
		t.Fatalf("ReadSubmissionsFromFile failed: %v", err)
	}
	if len(got) != 3 || got[2].Submission.Text != "c" {
		t.Errorf("unexpected entries: %+v", got)
	}
}

func TestReadSubmissionsFromFile_BadLine(t *testing.T) {
	path := writeFile(t, "{\"text\":\"ok\"}\nnot json\n")

	_, err := ReadSubmissionsFromFile(path)
	if err == nil {
		t.Fatal("expected error for malformed line, got nil")
	}
	if got := err.Error(); len(got) < 6 || got[:6] != "line 2" {
		t.Errorf("expected error to name line 2, got %s", got)
	}
}

func TestReadSubmissionsFromFile_NonExistent(t *testing.T) {
	_, err := ReadSubmissionsFromFile("non_existent_file.jsonl")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestClaimResult_GetError(t *testing.T) {
	r1 := &ClaimResult{Line: 1}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("claim failed")
	r2 := &ClaimResult{Line: 2, Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeFile(t, "{\"claimFormData\":{\"id\":\"u1\"}}\n{\"claimFormData\":{\"id\":\"u2\"}}\n")

	results, err := NewBatchProcessor(&MockRunner{}, 2).ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	_, err := NewBatchProcessor(&MockRunner{}, 2).ProcessFile(context.Background(), "no_such_file.jsonl")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
