package model

import "time"

// Mode selects how a submission is processed
type Mode string

const (
	ModeFixed   Mode = "fixed"   // FixedPipelineOrchestrator
	ModeDynamic Mode = "dynamic" // DynamicPlannerLoop
)

// Status is the state of an orchestration run
type Status string

const (
	StatusProcessing           Status = "PROCESSING"
	StatusComplete             Status = "PROCESSING_COMPLETE"
	StatusFailedAtExtraction   Status = "FAILED_AT_EXTRACTION"
	StatusIncompleteExtraction Status = "INCOMPLETE_EXTRACTION"
	StatusFailedAtValidation   Status = "FAILED_AT_VALIDATION"
	StatusFailedAtRouting      Status = "FAILED_AT_ROUTING"
	StatusFatalError           Status = "FATAL_ERROR"
)

// Terminal reports whether the run has finished
func (s Status) Terminal() bool {
	return s != StatusProcessing && s != ""
}

// StopReason records why the dynamic planner ended its loop
type StopReason string

const (
	StopRequested   StopReason = "stop"            // Oracle answered STOP
	StopInvalidTool StopReason = "invalid_tool"    // Oracle named an unknown or already used tool
	StopMaxSteps    StopReason = "max_steps"       // Step budget exhausted
	StopExhausted   StopReason = "tools_exhausted" // Every tool has been used
)

// ToolRun is one tool invocation chosen by the dynamic planner
type ToolRun struct {
	Step      int            `json:"step"`
	Tool      string         `json:"tool"`
	Input     map[string]any `json:"input,omitempty"`
	Output    ToolResult     `json:"output"`
	Timestamp time.Time      `json:"timestamp"`
}

// OrchestrationLog is the full account of one run
type OrchestrationLog struct {
	SubmissionID string    `json:"submissionId"`
	SubmitterID  string    `json:"submitterId"`
	Mode         Mode      `json:"mode"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime,omitempty"`
	Status       Status    `json:"status"`

	StageTimestamps map[Stage]time.Time `json:"stageTimestamps,omitempty"`
	Stages          []StageResult       `json:"stages,omitempty"`

	ToolRuns   []ToolRun  `json:"toolRuns,omitempty"`
	StopReason StopReason `json:"stopReason,omitempty"`

	Warnings    []string     `json:"warnings,omitempty"`
	FinalRecord *ClaimRecord `json:"finalResult,omitempty"`

	Error string `json:"error,omitempty"`
	Stack string `json:"stack,omitempty"`
}

// NewOrchestrationLog starts a log in the processing state
func NewOrchestrationLog(submissionID string, sub ClaimSubmission, mode Mode, start time.Time) *OrchestrationLog {
	return &OrchestrationLog{
		SubmissionID:    submissionID,
		SubmitterID:     sub.SubmitterID(),
		Mode:            mode,
		StartTime:       start,
		Status:          StatusProcessing,
		StageTimestamps: make(map[Stage]time.Time),
	}
}

// Stage returns the result recorded for a stage, if any
func (l *OrchestrationLog) Stage(stage Stage) (StageResult, bool) {
	for _, s := range l.Stages {
		if s.Stage == stage {
			return s, true
		}
	}
	return StageResult{}, false
}

// Duration returns the elapsed run time
func (l *OrchestrationLog) Duration() time.Duration {
	if l.EndTime.IsZero() {
		return 0
	}
	return l.EndTime.Sub(l.StartTime)
}
