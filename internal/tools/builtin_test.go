package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, RegisterBuiltins(reg, model.DefaultScoringConfig(), fixedNow))
	reg.Seal()
	return reg
}

var goodClaim = map[string]any{
	"claimantName": "Ana Silva",
	"claimType":    "auto",
	"claimDate":    "2025-06-10",
	"incidentDate": "2025-06-08",
	"reportDate":   "2025-06-10",
	"description":  "Rear-ended at a red light on Main Street",
	"amount":       "1500",
	"email":        "ana@example.com",
	"phone":        "555-123-4567",
	"address":      "12 Main Street",
}

func TestRegisterBuiltins_AllNames(t *testing.T) {
	reg := builtinRegistry(t)

	assert.Equal(t, []Name{
		DataConverter, DocumentClassifier, DocumentParser, QualityChecker,
		RiskCalculator, RulesEngine, SchemaValidator,
	}, reg.Names())

	for _, d := range reg.Descriptors() {
		assert.NotEmpty(t, d.Description, d.Name)
		assert.NotEmpty(t, d.Input.Required, d.Name)
	}
}

func TestBuiltins_DocumentParser(t *testing.T) {
	reg := builtinRegistry(t)

	res, err := reg.Invoke(context.Background(), DocumentParser, map[string]any{
		"document": `{"name":"Ana","claimAmount":"900","details":"Hail damage to the roof"}`,
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)

	parsed := res.Data.(*extract.ParsedDocument)
	assert.Equal(t, "Ana", parsed.Claim.ClaimantName)
	assert.Equal(t, "900", parsed.Claim.Amount)

	res, err = reg.Invoke(context.Background(), DocumentParser, map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestBuiltins_ClaimTools(t *testing.T) {
	reg := builtinRegistry(t)
	ctx := context.Background()

	res, err := reg.Invoke(ctx, RiskCalculator, map[string]any{"claimData": goodClaim})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, model.LevelLow, res.Data.(model.RiskAssessment).Level)

	res, err = reg.Invoke(ctx, RulesEngine, map[string]any{"claimData": goodClaim, "ruleSet": "basic_fraud_rules"})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Data.(model.RuleEvaluation).Passed)

	res, err = reg.Invoke(ctx, QualityChecker, map[string]any{"claimData": goodClaim, "minimum": "70"})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Data.(model.QualityReport).Passed)

	res, err = reg.Invoke(ctx, DocumentClassifier, map[string]any{"claimData": goodClaim})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "AUTO_INSURANCE", res.Data.(model.Classification).Category)
}

func TestBuiltins_ClaimFieldsAtTopLevel(t *testing.T) {
	reg := builtinRegistry(t)

	// The planner may pass claim fields directly instead of under claimData
	res, err := reg.Invoke(context.Background(), RiskCalculator, goodClaim)
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, model.LevelLow, res.Data.(model.RiskAssessment).Level)
}

func TestBuiltins_ClaimDataAsJSONString(t *testing.T) {
	reg := builtinRegistry(t)

	res, err := reg.Invoke(context.Background(), DocumentClassifier, map[string]any{
		"claimData": `{"claimType":"medical","amount":"200"}`,
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "HEALTH_INSURANCE", res.Data.(model.Classification).Category)
}

func TestBuiltins_Failures(t *testing.T) {
	reg := builtinRegistry(t)
	ctx := context.Background()

	res, err := reg.Invoke(ctx, RulesEngine, map[string]any{"claimData": goodClaim, "ruleSet": "exotic"})
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = reg.Invoke(ctx, RiskCalculator, map[string]any{"claimData": map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, errNoClaimData.Error(), res.Error)

	res, err = reg.Invoke(ctx, DataConverter, map[string]any{"data": goodClaim, "targetSchema": "nope"})
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = reg.Invoke(ctx, SchemaValidator, map[string]any{"data": 42})
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestBuiltins_ConverterAndValidator(t *testing.T) {
	reg := builtinRegistry(t)
	ctx := context.Background()

	res, err := reg.Invoke(ctx, DataConverter, map[string]any{"data": model.ClaimData{ClaimantName: "Ana", Amount: "10"}})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	intake := res.Data.(map[string]any)
	assert.Equal(t, "Ana", intake["claimant"].(map[string]any)["name"])

	res, err = reg.Invoke(ctx, SchemaValidator, map[string]any{"data": goodClaim, "schema": "claim_intake_schema"})
	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.True(t, res.Data.(model.SchemaValidation).IsValid)
}
