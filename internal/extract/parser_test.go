package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/model"
)

func TestDocumentParser_JSONStringWithAliases(t *testing.T) {
	doc := `{"name":"Ana","type":"auto","claimAmount":1200.5,"details":"Rear-ended on the highway","location":"Lisbon"}`

	parsed, err := NewDocumentParser().Parse(doc, "")
	require.NoError(t, err)

	assert.Equal(t, "claim_form", parsed.DocumentType)
	assert.Equal(t, "Ana", parsed.Claim.ClaimantName)
	assert.Equal(t, "auto", parsed.Claim.ClaimType)
	assert.Equal(t, "1200.5", parsed.Claim.Amount)
	assert.Equal(t, "Rear-ended on the highway", parsed.Claim.Description)
	assert.Equal(t, "Lisbon", parsed.Claim.IncidentLocation)
}

func TestDocumentParser_CanonicalKeyWinsOverAlias(t *testing.T) {
	doc := map[string]any{"claimantName": "Canonical", "name": "Alias"}

	parsed, err := NewDocumentParser().Parse(doc, "")
	require.NoError(t, err)
	assert.Equal(t, "Canonical", parsed.Claim.ClaimantName)
}

func TestDocumentParser_SubmissionEnvelope(t *testing.T) {
	sub := model.ClaimSubmission{
		Text: "Water pipe burst in the kitchen overnight",
		ClaimFormData: model.ClaimForm{
			ID:           "u1",
			Name:         "Bo",
			ClaimType:    "property",
			IncidentDate: "2025-05-01",
			ClaimAmount:  "3400",
		},
	}

	parsed, err := NewDocumentParser().Parse(sub, "")
	require.NoError(t, err)

	assert.Equal(t, "Bo", parsed.Claim.ClaimantName)
	assert.Equal(t, "property", parsed.Claim.ClaimType)
	assert.Equal(t, "3400", parsed.Claim.Amount)
	assert.Equal(t, "Water pipe burst in the kitchen overnight", parsed.Narrative)
	// No form description, so the narrative stands in
	assert.Equal(t, parsed.Narrative, parsed.Claim.Description)
}

func TestDocumentParser_PlainTextAndHTML(t *testing.T) {
	parsed, err := NewDocumentParser().Parse("  My car   was hit  ", "")
	require.NoError(t, err)
	assert.Equal(t, "My car was hit", parsed.Narrative)
	assert.Equal(t, "My car was hit", parsed.Raw["rawText"])

	parsed, err = NewDocumentParser().Parse("<html><body><p>Hail <b>damage</b></p><script>x()</script></body></html>", "")
	require.NoError(t, err)
	assert.Equal(t, "Hail damage", parsed.Narrative)
}

func TestDocumentParser_Empty(t *testing.T) {
	for _, doc := range []any{nil, "", "   ", map[string]any{}} {
		_, err := NewDocumentParser().Parse(doc, "")
		assert.ErrorIs(t, err, ErrEmptyDocument, "document %#v", doc)
	}
}

func TestClaimDataFromMap_FlattensIntakeDocument(t *testing.T) {
	intake := map[string]any{
		"claim":    map[string]any{"claimId": "C-9", "claimType": "health"},
		"claimant": map[string]any{"name": "Cy", "email": "cy@example.com"},
		"incident": map[string]any{"date": "2025-01-02", "description": "Broken wrist", "amount": 900.0},
	}

	claim, err := ClaimDataFromMap(intake)
	require.NoError(t, err)

	assert.Equal(t, model.ClaimData{
		ClaimNumber:  "C-9",
		ClaimantName: "Cy",
		ClaimType:    "health",
		IncidentDate: "2025-01-02",
		Description:  "Broken wrist",
		Amount:       "900",
		Email:        "cy@example.com",
	}, claim)
}
