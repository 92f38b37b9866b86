package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cast"
)

// Target schemas understood by the data converter
const (
	SchemaClaimIntake   = "claim_intake_schema"
	SchemaEnrichedClaim = "enriched_claim_schema"
	SchemaRouting       = "routing_schema"
)

var (
	// ErrUnknownSchema is returned for target schemas the converter does not support
	ErrUnknownSchema = errors.New("unknown target schema")
	// ErrNoData is returned when there is nothing to convert
	ErrNoData = errors.New("data must be a non-empty object")
)

// DataConverter reshapes claim data into one of the target schemas
type DataConverter struct {
	now func() time.Time
}

// NewDataConverter creates a data converter; now defaults to time.Now
func NewDataConverter(now func() time.Time) *DataConverter {
	if now == nil {
		now = time.Now
	}
	return &DataConverter{now: now}
}

// Convert converts data to the target schema (claim_intake_schema when empty)
func (c *DataConverter) Convert(data map[string]any, target string) (map[string]any, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	if target == "" {
		target = SchemaClaimIntake
	}

	stamp := c.now().UTC().Format(time.RFC3339)

	switch target {
	case SchemaClaimIntake:
		claim, err := ClaimDataFromMap(data)
		if err != nil {
			return nil, err
		}

		var amount any
		if v, ok := claim.AmountValue(); ok {
			amount = v
		}

		return map[string]any{
			"claim": map[string]any{
				"claimId":   nullable(claim.ClaimNumber),
				"claimType": orDefault(claim.ClaimType, "General"),
				"status":    orDefault(cast.ToString(data["status"]), "PENDING_VALIDATION"),
				"createdAt": stamp,
				"updatedAt": stamp,
			},
			"claimant": map[string]any{
				"name":         nullable(claim.ClaimantName),
				"email":        nullable(claim.Email),
				"phone":        nullable(claim.Phone),
				"address":      nullable(claim.Address),
				"policyNumber": nullable(claim.PolicyNumber),
			},
			"incident": map[string]any{
				"date":        nullable(claim.IncidentDate),
				"location":    nullable(claim.IncidentLocation),
				"description": nullable(claim.Description),
				"amount":      amount,
			},
			"metadata": map[string]any{
				"sourceFormat": orDefault(cast.ToString(data["sourceFormat"]), "unknown"),
				"parsedBy":     "documentParser",
				"confidence":   0.8,
			},
		}, nil

	case SchemaEnrichedClaim:
		out := make(map[string]any, len(data)+1)
		for k, v := range data {
			out[k] = v
		}
		out["enrichmentMetadata"] = map[string]any{
			"enrichedAt":       stamp,
			"enrichmentSource": "knowledge",
			"missingFields":    stringsOrEmpty(data["missingFields"]),
			"correctedFields":  stringsOrEmpty(data["correctedFields"]),
		}
		return out, nil

	case SchemaRouting:
		return map[string]any{
			"claimId":                nullable(cast.ToString(firstOf(data, "claimId", "claim_id"))),
			"routingDecision":        orDefault(cast.ToString(data["routingDecision"]), "PENDING"),
			"requiresAdditionalInfo": cast.ToBool(data["requiresAdditionalInfo"]),
			"flaggedForReview":       cast.ToBool(data["flaggedForReview"]),
			"riskScore":              cast.ToFloat64(data["riskScore"]),
			"assignedQueue":          orDefault(cast.ToString(data["assignedQueue"]), "DEFAULT"),
			"summary":                cast.ToString(data["summary"]),
			"nextSteps":              stringsOrEmpty(data["nextSteps"]),
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, target)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringsOrEmpty(v any) []string {
	if v == nil {
		return []string{}
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return []string{}
	}
	return out
}
