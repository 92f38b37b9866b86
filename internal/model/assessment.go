package model

// ToolResult is the envelope every tool returns: success with data, or failure with an error message
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Factor is one independently scored input to a composite score
type Factor struct {
	Name        string         `json:"name"`           // e.g. "amount", "claim_age"
	Score       int            `json:"score"`          // 0-100
	Description string         `json:"description"`    // Human-readable explanation
	Data        map[string]any `json:"data,omitempty"` // Transparent inputs and formula
}

// RiskAssessment is the output of the risk calculator
type RiskAssessment struct {
	Score   int      `json:"overallRiskScore"` // Rounded average of computed factors
	Level   Level    `json:"riskLevel"`
	Factors []Factor `json:"riskFactors"`
}

// RuleResult is the outcome of a single fraud rule
type RuleResult struct {
	Rule        string `json:"name"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Details     string `json:"details,omitempty"`
}

// RuleEvaluation is the output of the rules engine
type RuleEvaluation struct {
	RuleSet          string       `json:"ruleSet"`
	Results          []RuleResult `json:"rulesEvaluated"`
	FlaggedRules     []string     `json:"flaggedRules"`
	FraudRiskFactors []string     `json:"fraudRiskFactors"`
	Severity         Level        `json:"severity"`
	Passed           bool         `json:"passed"`
}

// QualityReport is the output of the quality checker
type QualityReport struct {
	Score           float64  `json:"qualityScore"`
	Completeness    float64  `json:"completenessScore"`
	Consistency     float64  `json:"consistencyScore"`
	Integrity       float64  `json:"integrityScore"`
	Minimum         float64  `json:"minimum"`
	Passed          bool     `json:"passed"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Classification is the output of the document classifier
type Classification struct {
	ClaimID         string   `json:"claimId"`
	Category        string   `json:"claimCategory"`
	Severity        Level    `json:"severity"`
	Urgency         Level    `json:"urgency,omitempty"` // Empty when no incident date is known
	Completeness    string   `json:"completeness"`      // COMPLETE, MOSTLY_COMPLETE, INCOMPLETE
	CompletenessPct int      `json:"completenessPct"`
	Confidence      float64  `json:"confidence"`
	Details         []string `json:"details"`
}

// SchemaValidation is the output of the schema validator
type SchemaValidation struct {
	Schema        string   `json:"schema"`
	IsValid       bool     `json:"isValid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	MissingFields []string `json:"missingFields"`
	InvalidFields []string `json:"invalidFields"`
}
