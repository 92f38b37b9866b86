package extract

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/ppiankov/claimflow/internal/model"
)

// fieldAliases maps alternative input keys to canonical ClaimData keys
var fieldAliases = map[string]string{
	"name":              "claimantName",
	"claimant_name":     "claimantName",
	"type":              "claimType",
	"claim_type":        "claimType",
	"date":              "claimDate",
	"claim_date":        "claimDate",
	"incident_date":     "incidentDate",
	"location":          "incidentLocation",
	"incident_location": "incidentLocation",
	"report_date":       "reportDate",
	"details":           "description",
	"claimAmount":       "amount",
	"claim_amount":      "amount",
	"policy_number":     "policyNumber",
	"claim_id":          "claimNumber",
	"claimId":           "claimNumber",
}

// ClaimDataFromMap decodes loosely typed claim fields into ClaimData.
// Canonical keys win over aliases; nested claim_intake_schema documents and
// contactInfo objects are flattened first.
func ClaimDataFromMap(m map[string]any) (model.ClaimData, error) {
	flat := flatten(m)

	normalized := make(map[string]any, len(flat))
	for key, value := range flat {
		canonical := key
		if alias, ok := fieldAliases[key]; ok {
			canonical = alias
		}
		if _, exists := normalized[canonical]; exists && canonical != key {
			continue
		}
		s, err := cast.ToStringE(value)
		if err != nil || strings.TrimSpace(s) == "" {
			continue
		}
		normalized[canonical] = s
	}

	var claim model.ClaimData
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &claim,
	})
	if err != nil {
		return model.ClaimData{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(normalized); err != nil {
		return model.ClaimData{}, fmt.Errorf("decode claim fields: %w", err)
	}
	return claim, nil
}

// flatten lifts nested claim/claimant/incident/contactInfo objects to the top level
func flatten(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, nested := v.(map[string]any); !nested {
			out[k] = v
		}
	}

	lift := func(key string, rename map[string]string) {
		nested, ok := m[key].(map[string]any)
		if !ok {
			return
		}
		for k, v := range nested {
			if _, nestedAgain := v.(map[string]any); nestedAgain {
				continue
			}
			target := k
			if r, ok := rename[k]; ok {
				target = r
			}
			if _, exists := out[target]; !exists {
				out[target] = v
			}
		}
	}

	lift("claim", map[string]string{"claimId": "claimNumber"})
	lift("claimant", map[string]string{"name": "claimantName"})
	lift("incident", map[string]string{"date": "incidentDate", "location": "incidentLocation"})
	lift("contactInfo", nil)
	lift("claimFormData", nil)
	return out
}
