package score

import (
	"math"
	"strings"

	"github.com/ppiankov/claimflow/internal/model"
)

// QualityScorer scores completeness, consistency and integrity of claim data
type QualityScorer struct {
	cfg model.QualityConfig
}

// NewQualityScorer creates a new quality scorer
func NewQualityScorer(cfg model.QualityConfig) *QualityScorer {
	return &QualityScorer{cfg: cfg}
}

// Check scores the claim against minimum (the configured minimum when <= 0)
func (s *QualityScorer) Check(claim model.ClaimData, minimum float64) model.QualityReport {
	if minimum <= 0 {
		minimum = s.cfg.Minimum
	}
	report := model.QualityReport{Minimum: minimum}

	// 1. Completeness: share of required fields populated
	missing := MissingFields(claim, s.cfg.RequiredFields)
	if len(s.cfg.RequiredFields) > 0 {
		populated := len(s.cfg.RequiredFields) - len(missing)
		report.Completeness = float64(populated) / float64(len(s.cfg.RequiredFields)) * 100
	} else {
		report.Completeness = 100
	}
	if len(missing) > 0 {
		report.Issues = append(report.Issues, "Missing required fields: "+strings.Join(missing, ", "))
		report.Recommendations = append(report.Recommendations, "Ensure all required claim fields are populated")
	}

	// 2. Consistency: incident must not follow the report
	incident, hasIncident := model.ParseDate(claim.IncidentDate)
	reported, hasReport := model.ParseDate(claim.ReportDate)
	switch {
	case hasIncident && hasReport && incident.After(reported):
		report.Consistency = 0
		report.Issues = append(report.Issues, "Incident date cannot be after report date")
		report.Recommendations = append(report.Recommendations, "Verify incident date and report date are in correct order")
	case hasIncident && hasReport:
		report.Consistency = 100
	default:
		report.Consistency = 50
		report.Recommendations = append(report.Recommendations, "Provide both incident date and report date for consistency checks")
	}

	// 3. Integrity: positive amount and a meaningful description
	if amount, ok := claim.AmountValue(); ok && amount > 0 {
		report.Integrity += 50
	} else {
		report.Issues = append(report.Issues, "Claim amount must be a positive number")
		report.Recommendations = append(report.Recommendations, "Correct the claim amount value")
	}
	if len(strings.TrimSpace(claim.Description)) > s.cfg.MinDescription {
		report.Integrity += 50
	} else {
		report.Issues = append(report.Issues, "Claim description is too short or missing")
		report.Recommendations = append(report.Recommendations, "Provide a detailed description")
	}

	overall := report.Completeness*s.cfg.CompletenessWeight +
		report.Consistency*s.cfg.ConsistencyWeight +
		report.Integrity*s.cfg.IntegrityWeight

	report.Score = math.Round(overall)
	report.Passed = overall >= minimum
	return report
}
