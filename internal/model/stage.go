package model

import "time"

// Stage tags a pipeline stage
type Stage string

const (
	StageExtraction     Stage = "extraction"
	StageValidation     Stage = "validation"
	StageEnrichment     Stage = "data_enrichment"
	StageFraudScreening Stage = "fraud_screening"
	StageRouting        Stage = "claim_routing"
)

// Stages lists the fixed pipeline order
var Stages = []Stage{
	StageExtraction,
	StageValidation,
	StageEnrichment,
	StageFraudScreening,
	StageRouting,
}

// StepRecord is one tool call or oracle consultation inside a stage
type StepRecord struct {
	Step   string `json:"step"`
	Tool   string `json:"tool,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// StageResult is the immutable report a stage agent returns
type StageResult struct {
	AgentName string       `json:"agentName"`
	Stage     Stage        `json:"stage"`
	Timestamp time.Time    `json:"timestamp"`
	Steps     []StepRecord `json:"steps"`
	Result    StageOutcome `json:"result"`
}

// StageOutcome is the terminal outcome of a stage; exactly one payload is set on success
type StageOutcome struct {
	Success           bool   `json:"success"`
	Error             string `json:"error,omitempty"`
	ReadyForNextStage bool   `json:"readyForNextStage"`

	Extraction     *ExtractionOutput      `json:"extraction,omitempty"`
	Validation     *ValidationSummary     `json:"validation,omitempty"`
	Enrichment     *EnrichmentOutput      `json:"enrichment,omitempty"`
	FraudScreening *FraudScreeningSummary `json:"fraudScreening,omitempty"`
	Routing        *RoutingOutput         `json:"routing,omitempty"`
}

// ExtractionQuality is the oracle's assessment of extracted data
type ExtractionQuality struct {
	Quality               string   `json:"extractionQuality"` // excellent, good, fair, poor
	CompletenessScore     float64  `json:"completenessScore"`
	MissingCriticalFields []string `json:"missingCriticalFields"`
	ConfidenceLevel       float64  `json:"confidenceLevel"`
	Summary               string   `json:"summary"`
}

// ExtractionOutput is the Extraction stage payload
type ExtractionOutput struct {
	Strategy string            `json:"strategy,omitempty"`
	Data     ClaimData         `json:"extractedData"`
	Intake   map[string]any    `json:"intake,omitempty"` // claim_intake_schema document
	Quality  ExtractionQuality `json:"quality"`
}

// ValidationSummary is the Validation stage payload
type ValidationSummary struct {
	Passed             bool              `json:"validationPassed"`
	Score              float64           `json:"validationScore"`
	CriticalErrors     []string          `json:"criticalErrors"`
	Warnings           []string          `json:"warnings"`
	ManualReviewNeeded bool              `json:"manualReviewNeeded"`
	NextAction         string            `json:"nextAction"`
	Reasoning          string            `json:"reasoning,omitempty"`
	Classification     *Classification   `json:"classification,omitempty"`
	Schema             *SchemaValidation `json:"schema,omitempty"`
}

// EnrichmentOutput is the Enrichment stage payload
type EnrichmentOutput struct {
	Data               ClaimData      `json:"enrichedData"`
	Document           map[string]any `json:"document,omitempty"` // enriched_claim_schema document
	NewFields          []string       `json:"newFields"`
	CorrectedFields    []string       `json:"correctedFields"`
	QualityImprovement string         `json:"qualityImprovement"`
	Confidence         float64        `json:"confidence"`
	Notes              []string       `json:"additionalNotes,omitempty"`
	KnowledgeQueries   []string       `json:"knowledgeQueries,omitempty"`
}

// FraudIndicator is one signal cited by the fraud analysis
type FraudIndicator struct {
	Indicator   string  `json:"indicator"`
	Severity    Level   `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// FraudScreeningSummary is the Fraud Screening stage payload
type FraudScreeningSummary struct {
	RiskLevel             Level            `json:"fraudRiskLevel"`
	Probability           float64          `json:"fraudProbability"`
	Indicators            []FraudIndicator `json:"fraudIndicators"`
	SuspiciousPatterns    []string         `json:"suspiciousPatterns"`
	RecommendedAction     string           `json:"recommendedAction"`
	Reasoning             string           `json:"reasoning"`
	NeedsInvestigation    bool             `json:"needsInvestigation"`
	InvestigationPriority string           `json:"investigationPriority"`
	FlaggedForReview      bool             `json:"flaggedForReview"`
	Rules                 *RuleEvaluation  `json:"rules,omitempty"`
	Risk                  *RiskAssessment  `json:"risk,omitempty"`
}

// RoutingDecision is the oracle's final routing verdict
type RoutingDecision struct {
	Decision                string   `json:"routingDecision"` // APPROVE, DENY, PENDING_ADDITIONAL_INFO, FLAG_FOR_SPECIAL_REVIEW
	AssignedQueue           string   `json:"assignedQueue"`
	ProcessingPriority      string   `json:"processingPriority"`
	RequiresAdditionalInfo  bool     `json:"requiresAdditionalInfo"`
	AdditionalInfoNeeded    []string `json:"additionalInfoNeeded"`
	ShouldBeFlagged         bool     `json:"shouldBeFlagged"`
	FlagReason              string   `json:"flagReason"`
	EstimatedProcessingTime string   `json:"estimatedProcessingTime"`
	Summary                 string   `json:"summary"`
	Reasoning               string   `json:"reasoning"`
}

// RoutingOutput is the Routing stage payload
type RoutingOutput struct {
	Decision RoutingDecision `json:"decision"`
	Quality  *QualityReport  `json:"quality,omitempty"`
	Record   ClaimRecord     `json:"claimResult"`
}
