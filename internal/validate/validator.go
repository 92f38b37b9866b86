package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/model"
)

// Schemas understood by the validator
const (
	SchemaClaimIntake = extract.SchemaClaimIntake
	SchemaRouting     = extract.SchemaRouting
)

// RoutingStatuses are the statuses accepted by routing_schema
var RoutingStatuses = []string{"APPROVED", "DENIED", "PENDING_INFO", "PENDING_REVIEW", "FRAUD_SUSPECTED"}

var (
	// ErrUnknownSchema is returned for schemas the validator does not define
	ErrUnknownSchema = errors.New("unknown validation schema")
	// ErrNoData is returned when there is nothing to validate
	ErrNoData = errors.New("data must be a non-empty object")
)

// SchemaValidator checks claim data against a named schema
type SchemaValidator struct {
	intakeRequired []string
	minDescription int
}

// NewSchemaValidator creates a validator; minDescription is the shortest description that does not warn
func NewSchemaValidator(minDescription int) *SchemaValidator {
	return &SchemaValidator{
		intakeRequired: []string{"claimantName", "claimType", "claimDate", "amount", "description"},
		minDescription: minDescription,
	}
}

// Validate validates data against schema (claim_intake_schema when empty)
func (v *SchemaValidator) Validate(data map[string]any, schema string) (model.SchemaValidation, error) {
	if len(data) == 0 {
		return model.SchemaValidation{}, ErrNoData
	}
	if schema == "" {
		schema = SchemaClaimIntake
	}

	result := model.SchemaValidation{
		Schema:        schema,
		IsValid:       true,
		Errors:        []string{},
		Warnings:      []string{},
		MissingFields: []string{},
		InvalidFields: []string{},
	}

	switch schema {
	case SchemaClaimIntake:
		claim, err := extract.ClaimDataFromMap(data)
		if err != nil {
			return model.SchemaValidation{}, err
		}
		v.validateIntake(claim, &result)

	case SchemaRouting:
		v.validateRouting(data, &result)

	default:
		return model.SchemaValidation{}, fmt.Errorf("%w: %s", ErrUnknownSchema, schema)
	}

	return result, nil
}

func (v *SchemaValidator) validateIntake(claim model.ClaimData, result *model.SchemaValidation) {
	fields := claim.Fields()
	for _, name := range v.intakeRequired {
		if _, ok := fields[name]; !ok {
			result.MissingFields = append(result.MissingFields, name)
			result.Errors = append(result.Errors, "Missing required field: "+name)
			result.IsValid = false
		}
	}

	if claim.Amount != "" {
		if _, ok := claim.AmountValue(); !ok {
			result.InvalidFields = append(result.InvalidFields, "amount")
			result.Errors = append(result.Errors, "Amount must be a number")
			result.IsValid = false
		}
	}

	if claim.ClaimDate != "" {
		if _, ok := model.ParseDate(claim.ClaimDate); !ok {
			result.Warnings = append(result.Warnings, "claimDate is not a valid date format")
		}
	}

	if claim.Description != "" && len(claim.Description) < v.minDescription {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Description is too short (minimum %d characters)", v.minDescription))
	}
}

func (v *SchemaValidator) validateRouting(data map[string]any, result *model.SchemaValidation) {
	decision := cast.ToString(data["routingDecision"])
	if !contains(RoutingStatuses, decision) {
		result.InvalidFields = append(result.InvalidFields, "routingDecision")
		result.Errors = append(result.Errors, "Invalid routing decision. Must be one of: "+strings.Join(RoutingStatuses, ", "))
		result.IsValid = false
	}

	score, err := cast.ToFloat64E(data["riskScore"])
	if _, present := data["riskScore"]; !present || err != nil || score < 0 || score > 100 {
		result.InvalidFields = append(result.InvalidFields, "riskScore")
		result.Errors = append(result.Errors, "Risk score must be a number between 0 and 100")
		result.IsValid = false
	}
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
