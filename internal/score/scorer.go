package score

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/claimflow/internal/model"
)

// RiskScorer calculates the composite claim risk score
type RiskScorer struct {
	cfg    model.RiskConfig
	levels model.LevelThresholds
	now    func() time.Time
}

// NewRiskScorer creates a new risk scorer; now defaults to time.Now
func NewRiskScorer(cfg model.RiskConfig, levels model.LevelThresholds, now func() time.Time) *RiskScorer {
	if now == nil {
		now = time.Now
	}
	return &RiskScorer{cfg: cfg, levels: levels, now: now}
}

// Calculate scores every computable factor and averages them
func (s *RiskScorer) Calculate(claim model.ClaimData) model.RiskAssessment {
	var factors []model.Factor

	// 1. Amount tier
	factors = append(factors, s.amountFactor(claim))

	// 2. Claim age (skipped without a claim date)
	if f, ok := s.ageFactor(claim); ok {
		factors = append(factors, f)
	}

	// 3. Missing required fields
	factors = append(factors, s.missingFieldsFactor(claim))

	// 4. Contact channels
	factors = append(factors, s.contactFactor(claim))

	// 5. Claim type category
	factors = append(factors, s.typeFactor(claim))

	total := 0
	for _, f := range factors {
		total += f.Score
	}
	overall := int(math.Round(float64(total) / float64(len(factors))))

	return model.RiskAssessment{
		Score:   overall,
		Level:   s.levels.LevelFor(float64(overall)),
		Factors: factors,
	}
}

// amountFactor scores the claimed amount against descending tiers
func (s *RiskScorer) amountFactor(claim model.ClaimData) model.Factor {
	amount, _ := claim.AmountValue()
	score := tierScore(s.cfg.AmountTiers, amount, s.cfg.AmountBase)

	return model.Factor{
		Name:        "amount",
		Score:       score,
		Description: fmt.Sprintf("Claim amount %.2f", amount),
		Data: map[string]any{
			"amount":  amount,
			"score":   score,
			"formula": "first tier with amount > above, else base",
		},
	}
}

// ageFactor scores how long ago the claim was filed
func (s *RiskScorer) ageFactor(claim model.ClaimData) (model.Factor, bool) {
	filed, ok := model.ParseDate(claim.ClaimDate)
	if !ok {
		return model.Factor{}, false
	}

	days := model.DaysBetween(filed, s.now())
	score := tierScore(s.cfg.AgeTiers, float64(days), s.cfg.AgeBase)

	return model.Factor{
		Name:        "claim_age",
		Score:       score,
		Description: fmt.Sprintf("Claim filed %d days ago", days),
		Data: map[string]any{
			"days":    days,
			"score":   score,
			"formula": "first tier with age_days > above, else base",
		},
	}, true
}

// missingFieldsFactor penalizes each missing required field
func (s *RiskScorer) missingFieldsFactor(claim model.ClaimData) model.Factor {
	missing := MissingFields(claim, s.cfg.RequiredFields)
	score := len(missing) * s.cfg.MissingFieldPenalty
	if score > s.cfg.MissingFieldCap {
		score = s.cfg.MissingFieldCap
	}

	return model.Factor{
		Name:        "missing_fields",
		Score:       score,
		Description: fmt.Sprintf("%d of %d required fields missing", len(missing), len(s.cfg.RequiredFields)),
		Data: map[string]any{
			"missing": missing,
			"score":   score,
			"formula": fmt.Sprintf("min(missing * %d, %d)", s.cfg.MissingFieldPenalty, s.cfg.MissingFieldCap),
		},
	}
}

// contactFactor penalizes each absent or invalid contact channel
func (s *RiskScorer) contactFactor(claim model.ClaimData) model.Factor {
	valid := ValidContacts(claim)
	score := (3 - valid) * s.cfg.ContactPenalty

	return model.Factor{
		Name:        "contact_info",
		Score:       score,
		Description: fmt.Sprintf("%d of 3 contact channels valid", valid),
		Data: map[string]any{
			"valid":   valid,
			"score":   score,
			"formula": fmt.Sprintf("(3 - valid) * %d", s.cfg.ContactPenalty),
		},
	}
}

// typeFactor scores the claim type category
func (s *RiskScorer) typeFactor(claim model.ClaimData) model.Factor {
	claimType := strings.ToLower(claim.ClaimType)
	score := s.cfg.TypeDefault
	matched := ""

	for _, ks := range s.cfg.TypeScores {
		if kw, ok := containsAny(claimType, ks.Keywords); ok {
			score = ks.Score
			matched = kw
			break
		}
	}

	return model.Factor{
		Name:        "claim_type",
		Score:       score,
		Description: fmt.Sprintf("Claim type %q", claim.ClaimType),
		Data: map[string]any{
			"matched": matched,
			"score":   score,
		},
	}
}

// tierScore returns the score of the first tier value exceeds, else base
func tierScore(tiers []model.Tier, value float64, base int) int {
	for _, t := range tiers {
		if value > t.Above {
			return t.Score
		}
	}
	return base
}

func containsAny(s string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

var nonDigit = regexp.MustCompile(`\D`)

// ValidContacts counts usable contact channels: email with "@", phone with 10+ digits, address over 5 chars
func ValidContacts(claim model.ClaimData) int {
	valid := 0
	if strings.Contains(claim.Email, "@") {
		valid++
	}
	if len(nonDigit.ReplaceAllString(claim.Phone, "")) >= 10 {
		valid++
	}
	if len(strings.TrimSpace(claim.Address)) > 5 {
		valid++
	}
	return valid
}

// MissingFields returns the fields from required that claim leaves empty
func MissingFields(claim model.ClaimData, required []string) []string {
	fields := claim.Fields()
	missing := []string{}
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
