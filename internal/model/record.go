package model

import (
	"strings"
	"time"
)

// ClaimRecord is the persisted outcome of one processed submission
type ClaimRecord struct {
	ClaimID     string `json:"claimId"` // CLM001, CLM002, ... assigned at append time
	SubmitterID string `json:"id"`
	Mode        Mode   `json:"mode,omitempty"`

	// Timestamps holds the start time of each stage (or tool, in dynamic mode) that ran
	Timestamps map[string]time.Time `json:"timestamps,omitempty"`

	ClaimType        string `json:"claimType"`
	IncidentDate     string `json:"incidentDate"`
	IncidentLocation string `json:"incidentLocation"`
	Description      string `json:"description"`
	ClaimAmount      string `json:"claimAmount"`
	AgreeTerms       bool   `json:"agreeTerms"`
	Name             string `json:"name"`

	StageSummaries StageSummaries `json:"stageSummaries"`
	Summary        string         `json:"summary"`
}

// StageSummaries holds one short summary per stage; stages that did not run stay empty
type StageSummaries struct {
	Extraction     string `json:"extraction,omitempty"`
	Validation     string `json:"validation,omitempty"`
	Enrichment     string `json:"enrichment,omitempty"`
	FraudScreening string `json:"fraudScreening,omitempty"`
	Routing        string `json:"routing,omitempty"`
}

// Empty reports whether no stage produced a summary
func (s StageSummaries) Empty() bool {
	return s == StageSummaries{}
}

// Joined concatenates the non-empty summaries in pipeline order
func (s StageSummaries) Joined() string {
	var parts []string
	for _, part := range []string{s.Extraction, s.Validation, s.Enrichment, s.FraudScreening, s.Routing} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, SummarySeparator)
}

// SummarySeparator joins summary fragments
const SummarySeparator = " | "

// NewClaimRecord seeds a record with the original submission fields
func NewClaimRecord(sub ClaimSubmission, mode Mode) ClaimRecord {
	form := sub.Form()
	return ClaimRecord{
		SubmitterID:      sub.SubmitterID(),
		Mode:             mode,
		Timestamps:       make(map[string]time.Time),
		ClaimType:        form.ClaimType,
		IncidentDate:     form.IncidentDate,
		IncidentLocation: form.IncidentLocation,
		Description:      form.Description,
		ClaimAmount:      form.ClaimAmount,
		AgreeTerms:       form.AgreeTerms,
		Name:             form.Name,
	}
}

// Complete fills record fields the submission form left empty from claim data
func (r *ClaimRecord) Complete(claim ClaimData) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&r.ClaimType, claim.ClaimType)
	fill(&r.IncidentDate, claim.IncidentDate)
	fill(&r.IncidentLocation, claim.IncidentLocation)
	fill(&r.Description, claim.Description)
	fill(&r.ClaimAmount, claim.Amount)
	fill(&r.Name, claim.ClaimantName)
}
