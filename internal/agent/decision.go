package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/tools"
)

// Number is a JSON number that also accepts numeric strings such as "75" or "75%"
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return fmt.Errorf("not a number: %s", data)
	}
	*n = Number(f)
	return nil
}

// Text is a JSON scalar kept as a string
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case map[string]any, []any:
		return fmt.Errorf("expected a scalar, got %s", data)
	}
	*t = Text(cast.ToString(v))
	return nil
}

// TextList is a list of short strings. Oracles send these as a string array,
// an array of objects, a single string, or an object keyed by name; all are accepted.
type TextList []string

// labelKeys are tried in order to name an object inside a list
var labelKeys = []string{"field", "indicator", "name", "message", "error", "issue", "description"}

// UnmarshalJSON implements json.Unmarshaler
func (l *TextList) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	var out []string
	switch val := v.(type) {
	case nil:
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range val {
			if s := label(item); s != "" {
				out = append(out, s)
			}
		}
	case map[string]any:
		for key := range val {
			out = append(out, key)
		}
		sort.Strings(out)
	default:
		return fmt.Errorf("expected a list, got %s", data)
	}
	*l = out
	return nil
}

func label(item any) string {
	obj, ok := item.(map[string]any)
	if !ok {
		return strings.TrimSpace(cast.ToString(item))
	}
	for _, key := range labelKeys {
		if s := strings.TrimSpace(cast.ToString(obj[key])); s != "" {
			return s
		}
	}
	b, _ := json.Marshal(obj)
	return string(b)
}

// oneOf normalizes s to upper case and checks it against allowed values; empty passes
func oneOf(field, s string, allowed ...string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", fmt.Errorf("%s %q is not one of %s", field, s, strings.Join(allowed, ", "))
}

func inRange(field string, n *Number, lo, hi float64) error {
	if n == nil {
		return fmt.Errorf("%s is required", field)
	}
	if float64(*n) < lo || float64(*n) > hi {
		return fmt.Errorf("%s %v is outside [%v, %v]", field, float64(*n), lo, hi)
	}
	return nil
}

// ExtractionStrategy is the oracle's plan for extracting claim data
type ExtractionStrategy struct {
	Strategy   string         `json:"strategy"`
	ToolsToUse TextList       `json:"toolsToUse"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Reasoning  string         `json:"reasoning"`
}

// extractionTools are the tools the strategy may name
var extractionTools = []tools.Name{tools.DocumentParser, tools.DataConverter}

// Validate implements llm.Decision
func (d *ExtractionStrategy) Validate() error {
	for _, name := range d.ToolsToUse {
		known := false
		for _, t := range extractionTools {
			if tools.Name(name) == t {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("toolsToUse names unknown extraction tool %q", name)
		}
	}
	return nil
}

// ExtractionAssessment is the oracle's verdict on extracted data
type ExtractionAssessment struct {
	Quality               string   `json:"extractionQuality"`
	CompletenessScore     *Number  `json:"completenessScore"`
	MissingCriticalFields TextList `json:"missingCriticalFields"`
	ConfidenceLevel       *Number  `json:"confidenceLevel"`
	Summary               string   `json:"summary"`
}

// Validate implements llm.Decision
func (d *ExtractionAssessment) Validate() error {
	q, err := oneOf("extractionQuality", d.Quality, "EXCELLENT", "GOOD", "FAIR", "POOR")
	if err != nil {
		return err
	}
	d.Quality = strings.ToLower(q)
	if err := inRange("completenessScore", d.CompletenessScore, 0, 100); err != nil {
		return err
	}
	if d.ConfidenceLevel != nil {
		return inRange("confidenceLevel", d.ConfidenceLevel, 0, 1)
	}
	return nil
}

// ValidationVerdict is the oracle's validation decision
type ValidationVerdict struct {
	IsValid              *bool    `json:"isValid"`
	ValidationScore      *Number  `json:"validationScore"`
	ValidationErrors     TextList `json:"validationErrors"`
	ValidationWarnings   TextList `json:"validationWarnings"`
	RequiresManualReview bool     `json:"requiresManualReview"`
	Reasoning            string   `json:"reasoning"`
	RecommendedAction    string   `json:"recommendedAction"`
}

// Validate implements llm.Decision
func (d *ValidationVerdict) Validate() error {
	if d.IsValid == nil {
		return errors.New("isValid is required")
	}
	if err := inRange("validationScore", d.ValidationScore, 0, 100); err != nil {
		return err
	}
	action, err := oneOf("recommendedAction", d.RecommendedAction, "PASS_VALIDATION", "FLAG_FOR_REVIEW", "REJECT")
	if err != nil {
		return err
	}
	d.RecommendedAction = action
	return nil
}

// EnrichmentPlan is the oracle's list of gaps and knowledge queries
type EnrichmentPlan struct {
	MissingFields  TextList `json:"missingFields"`
	SuspiciousData TextList `json:"suspiciousData"`
	Queries        TextList `json:"ragQueries"`
	Strategy       string   `json:"enrichmentStrategy"`
}

// Validate implements llm.Decision
func (d *EnrichmentPlan) Validate() error {
	return nil
}

// EnrichmentSynthesis is the oracle's enriched view of the claim
type EnrichmentSynthesis struct {
	EnrichedData       map[string]any `json:"enrichedData"`
	NewlyAddedFields   TextList       `json:"newlyAddedFields"`
	CorrectedFields    TextList       `json:"correctedFields"`
	QualityImprovement Text           `json:"dataQualityImprovement"`
	Confidence         *Number        `json:"confidence"`
	Notes              TextList       `json:"additionalNotesForReview"`
}

// Validate implements llm.Decision
func (d *EnrichmentSynthesis) Validate() error {
	return inRange("confidence", d.Confidence, 0, 1)
}

// IndicatorDecision is one fraud indicator as the oracle reports it
type IndicatorDecision struct {
	Indicator   string `json:"indicator"`
	Severity    string `json:"severity"`
	Confidence  Number `json:"confidence"`
	Description string `json:"description"`
}

// FraudAnalysis is the oracle's fraud verdict
type FraudAnalysis struct {
	RiskLevel             string              `json:"fraudRiskLevel"`
	Indicators            []IndicatorDecision `json:"fraudIndicators"`
	Probability           *Number             `json:"overallFraudProbability"`
	SuspiciousPatterns    TextList            `json:"suspiciousPatterns"`
	RecommendedAction     string              `json:"recommendedAction"`
	Reasoning             string              `json:"reasoning"`
	NeedsInvestigation    bool                `json:"needsInvestigation"`
	InvestigationPriority string              `json:"investigationPriority"`
}

// Validate implements llm.Decision
func (d *FraudAnalysis) Validate() error {
	if d.RiskLevel == "" && d.Probability == nil {
		return errors.New("fraudRiskLevel or overallFraudProbability is required")
	}
	if d.RiskLevel != "" {
		level, ok := model.ParseLevel(d.RiskLevel)
		if !ok {
			return fmt.Errorf("fraudRiskLevel %q is not a risk level", d.RiskLevel)
		}
		d.RiskLevel = string(level)
	}
	if d.Probability != nil {
		if err := inRange("overallFraudProbability", d.Probability, 0, 1); err != nil {
			return err
		}
	}
	for i, ind := range d.Indicators {
		if ind.Severity == "" {
			continue
		}
		level, ok := model.ParseLevel(ind.Severity)
		if !ok {
			return fmt.Errorf("fraudIndicators[%d].severity %q is not a level", i, ind.Severity)
		}
		d.Indicators[i].Severity = string(level)
	}
	action, err := oneOf("recommendedAction", d.RecommendedAction, "APPROVE", "FLAG_FOR_REVIEW", "DENY")
	if err != nil {
		return err
	}
	d.RecommendedAction = action
	priority, err := oneOf("investigationPriority", d.InvestigationPriority, "LOW", "MEDIUM", "HIGH")
	if err != nil {
		return err
	}
	d.InvestigationPriority = strings.ToLower(priority)
	return nil
}

// Routing decisions
const (
	DecisionApprove           = "APPROVE"
	DecisionDeny              = "DENY"
	DecisionPendingInfo       = "PENDING_ADDITIONAL_INFO"
	DecisionFlagSpecialReview = "FLAG_FOR_SPECIAL_REVIEW"
)

// RoutingVerdict is the oracle's final routing decision
type RoutingVerdict struct {
	Decision                string   `json:"routingDecision"`
	AssignedQueue           string   `json:"assignedQueue"`
	ProcessingPriority      string   `json:"processingPriority"`
	RequiresAdditionalInfo  bool     `json:"requiresAdditionalInfo"`
	AdditionalInfoNeeded    TextList `json:"additionalInfoNeeded"`
	ShouldBeFlagged         bool     `json:"shouldBeFlagged"`
	FlagReason              string   `json:"flagReason"`
	EstimatedProcessingTime Text     `json:"estimatedProcessingTime"`
	Summary                 string   `json:"summary"`
	Reasoning               string   `json:"reasoning"`
}

// Validate implements llm.Decision
func (d *RoutingVerdict) Validate() error {
	if strings.TrimSpace(d.Decision) == "" {
		return errors.New("routingDecision is required")
	}
	decision, err := oneOf("routingDecision", d.Decision, DecisionApprove, DecisionDeny, DecisionPendingInfo, DecisionFlagSpecialReview)
	if err != nil {
		return err
	}
	d.Decision = decision
	queue, err := oneOf("assignedQueue", d.AssignedQueue, "STANDARD_PROCESSING", "SPECIAL_REVIEW", "FRAUD_INVESTIGATION", "MANUAL_REVIEW")
	if err != nil {
		return err
	}
	d.AssignedQueue = strings.ToLower(queue)
	priority, err := oneOf("processingPriority", d.ProcessingPriority, "EXPEDITED", "STANDARD", "DELAYED")
	if err != nil {
		return err
	}
	d.ProcessingPriority = strings.ToLower(priority)
	return nil
}

// toModel converts the verdict into the stage payload
func (d *RoutingVerdict) toModel() model.RoutingDecision {
	return model.RoutingDecision{
		Decision:                d.Decision,
		AssignedQueue:           d.AssignedQueue,
		ProcessingPriority:      d.ProcessingPriority,
		RequiresAdditionalInfo:  d.RequiresAdditionalInfo,
		AdditionalInfoNeeded:    []string(d.AdditionalInfoNeeded),
		ShouldBeFlagged:         d.ShouldBeFlagged,
		FlagReason:              d.FlagReason,
		EstimatedProcessingTime: string(d.EstimatedProcessingTime),
		Summary:                 d.Summary,
		Reasoning:               d.Reasoning,
	}
}
