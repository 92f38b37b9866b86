package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/claimflow/internal/model"
)

// Insurance categories assigned by the classifier
const (
	CategoryHealth    = "HEALTH_INSURANCE"
	CategoryAuto      = "AUTO_INSURANCE"
	CategoryProperty  = "PROPERTY_INSURANCE"
	CategoryLiability = "LIABILITY_INSURANCE"
	CategoryOther     = "OTHER"
)

// Completeness labels assigned by the classifier
const (
	Complete       = "COMPLETE"
	MostlyComplete = "MOSTLY_COMPLETE"
	Incomplete     = "INCOMPLETE"
)

// categoryRule assigns a category when the claim type contains any keyword
type categoryRule struct {
	keywords []string
	category string
	detail   string
}

var categoryRules = []categoryRule{
	{[]string{"health", "medical"}, CategoryHealth, "Classified as health insurance claim"},
	{[]string{"auto", "vehicle"}, CategoryAuto, "Classified as auto insurance claim"},
	{[]string{"property", "home"}, CategoryProperty, "Classified as property insurance claim"},
	{[]string{"liability"}, CategoryLiability, "Classified as liability insurance claim"},
}

// DocumentClassifier assigns category, severity, urgency and completeness labels
type DocumentClassifier struct {
	required []string
	now      func() time.Time
}

// NewDocumentClassifier creates a classifier; now defaults to time.Now
func NewDocumentClassifier(now func() time.Time) *DocumentClassifier {
	if now == nil {
		now = time.Now
	}
	return &DocumentClassifier{
		required: []string{"claimantName", "claimType", "amount", "description"},
		now:      now,
	}
}

// Classify labels the claim
func (c *DocumentClassifier) Classify(claim model.ClaimData) model.Classification {
	out := model.Classification{
		ClaimID:    claim.ClaimNumber,
		Confidence: 0.75,
	}
	if out.ClaimID == "" {
		out.ClaimID = "unknown"
	}

	// Category from claim type keywords
	claimType := strings.ToLower(claim.ClaimType)
	out.Category = CategoryOther
	detail := "Classified as other claim type"
	for _, rule := range categoryRules {
		if _, ok := containsAny(claimType, rule.keywords); ok {
			out.Category = rule.category
			detail = rule.detail
			break
		}
	}
	out.Details = append(out.Details, detail)

	// Severity from amount tiers
	amount, _ := claim.AmountValue()
	switch {
	case amount < 1000:
		out.Severity = model.LevelLow
	case amount < 10000:
		out.Severity = model.LevelMedium
	case amount < 50000:
		out.Severity = model.LevelHigh
	default:
		out.Severity = model.LevelCritical
	}
	out.Details = append(out.Details, fmt.Sprintf("Amount indicates %s severity claim", strings.ToLower(string(out.Severity))))

	// Urgency from days since the incident
	if incident, ok := model.ParseDate(claim.IncidentDate); ok {
		days := model.DaysBetween(incident, c.now())
		switch {
		case days <= 7:
			out.Urgency = model.LevelHigh
			out.Details = append(out.Details, "Recent incident - high urgency")
		case days <= 30:
			out.Urgency = model.LevelMedium
			out.Details = append(out.Details, "Moderate time since incident")
		default:
			out.Urgency = model.LevelLow
			out.Details = append(out.Details, "Significant time elapsed since incident")
		}
	}

	// Completeness of the fields a reviewer needs
	fields := claim.Fields()
	provided := 0
	for _, name := range c.required {
		if _, ok := fields[name]; ok {
			provided++
		}
	}
	out.CompletenessPct = provided * 100 / len(c.required)
	switch {
	case out.CompletenessPct == 100:
		out.Completeness = Complete
		out.Details = append(out.Details, "All required fields provided")
	case out.CompletenessPct >= 75:
		out.Completeness = MostlyComplete
		out.Details = append(out.Details, fmt.Sprintf("%d%% of required fields provided", out.CompletenessPct))
	default:
		out.Completeness = Incomplete
		out.Details = append(out.Details, fmt.Sprintf("Only %d%% of required fields provided", out.CompletenessPct))
	}

	return out
}

func containsAny(s string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}
