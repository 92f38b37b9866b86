package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimSubmission_UnmarshalObjectForm(t *testing.T) {
	raw := `{"text":"hail damage","claimFormData":{"id":"u1","name":"Ana","claimAmount":"1200","agreeTerms":true}}`

	var sub ClaimSubmission
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))

	assert.Equal(t, "hail damage", sub.Text)
	assert.Equal(t, "u1", sub.ClaimFormData.ID)
	assert.Equal(t, "1200", sub.ClaimFormData.ClaimAmount)
	assert.True(t, sub.ClaimFormData.AgreeTerms)
}

func TestClaimSubmission_UnmarshalEncodedForm(t *testing.T) {
	raw := `{"text":"x","claimFormData":"{\"id\":\"u2\",\"claimType\":\"auto\"}"}`

	var sub ClaimSubmission
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))

	assert.Equal(t, "u2", sub.SubmitterID())
	assert.Equal(t, "auto", sub.Form().ClaimType)
}

func TestClaimSubmission_FormFromNarrative(t *testing.T) {
	sub := ClaimSubmission{Text: `{"id":"u3","name":"Bo","claimType":"health"}`}

	form := sub.Form()
	assert.Equal(t, "u3", form.ID)
	assert.Equal(t, "Bo", form.Name)
}

func TestClaimSubmission_AnonymousSubmitter(t *testing.T) {
	sub := ClaimSubmission{Text: "no form at all"}
	assert.Equal(t, AnonymousSubmitter, sub.SubmitterID())
}

func TestClaimData_AmountValue(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"1500", 1500, true},
		{"$1,500.50", 1500.5, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"lots", 0, false},
	}

	for _, tt := range tests {
		got, ok := ClaimData{Amount: tt.raw}.AmountValue()
		assert.Equal(t, tt.wantOK, ok, "amount %q", tt.raw)
		assert.InDelta(t, tt.want, got, 0.001, "amount %q", tt.raw)
	}
}

func TestClaimData_MergeOverlaysPopulatedFields(t *testing.T) {
	base := ClaimData{ClaimantName: "Ana", ClaimType: "auto", Description: "old"}
	over := ClaimData{Description: "new", Email: "ana@example.com"}

	merged := base.Merge(over)
	assert.Equal(t, "Ana", merged.ClaimantName)
	assert.Equal(t, "new", merged.Description)
	assert.Equal(t, "ana@example.com", merged.Email)
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{"2025-03-01", "2025-03-01T10:00:00Z", "03/01/2025", "March 1, 2025"} {
		got, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, time.March, got.Month(), raw)
	}

	_, ok := ParseDate("yesterday-ish")
	assert.False(t, ok)
}

func TestLevelThresholds_LevelFor(t *testing.T) {
	th := DefaultLevelThresholds()

	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelLow},
		{29.9, LevelLow},
		{30, LevelMedium},
		{50, LevelHigh},
		{69, LevelHigh},
		{70, LevelCritical},
		{100, LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.LevelFor(tt.score), "score %.1f", tt.score)
	}

	assert.Equal(t, LevelHigh, th.LevelForProbability(0.55))
}

func TestStageSummaries_Joined(t *testing.T) {
	s := StageSummaries{Validation: "Validation: PASSED", Routing: "Final Decision: APPROVE"}
	assert.Equal(t, "Validation: PASSED | Final Decision: APPROVE", s.Joined())
	assert.True(t, StageSummaries{}.Empty())
}
