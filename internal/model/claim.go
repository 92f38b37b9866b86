package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ClaimForm is the structured form data that accompanies a submission
type ClaimForm struct {
	ID               string `json:"id"`                     // Submitter identity (key in the result store)
	Name             string `json:"name"`                   // Claimant name as typed in the form
	ClaimType        string `json:"claimType"`              // e.g. "auto", "property", "health"
	IncidentDate     string `json:"incidentDate"`           // Date of the incident
	IncidentLocation string `json:"incidentLocation"`       // Where it happened
	Description      string `json:"description"`            // Free-text description from the form
	ClaimAmount      string `json:"claimAmount"`            // Amount exactly as typed
	AgreeTerms       bool   `json:"agreeTerms"`             // Consent flag
	ClaimDate        string `json:"claimDate,omitempty"`    // Date the claim was filed (optional)
	Email            string `json:"email,omitempty"`        // Contact email (optional)
	Phone            string `json:"phone,omitempty"`        // Contact phone (optional)
	Address          string `json:"address,omitempty"`      // Postal address (optional)
	PolicyNumber     string `json:"policyNumber,omitempty"` // Policy identifier (optional)
}

// ClaimSubmission is the unit of work accepted by the engine
type ClaimSubmission struct {
	Text          string    `json:"text"`          // Free-text narrative
	ClaimFormData ClaimForm `json:"claimFormData"` // Structured form data
}

// UnmarshalJSON accepts claimFormData as an object or as a JSON-encoded string
func (s *ClaimSubmission) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text          string          `json:"text"`
		ClaimFormData json.RawMessage `json:"claimFormData"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Text = raw.Text
	s.ClaimFormData = ClaimForm{}

	form := raw.ClaimFormData
	if len(form) == 0 || string(form) == "null" {
		return nil
	}

	// The form may arrive double-encoded from browser clients
	var encoded string
	if err := json.Unmarshal(form, &encoded); err == nil {
		form = []byte(encoded)
	}

	if err := json.Unmarshal(form, &s.ClaimFormData); err != nil {
		return fmt.Errorf("decode claimFormData: %w", err)
	}
	return nil
}

// Form returns the form data, falling back to a JSON form embedded in the narrative
func (s ClaimSubmission) Form() ClaimForm {
	if s.ClaimFormData != (ClaimForm{}) {
		return s.ClaimFormData
	}

	trimmed := strings.TrimSpace(s.Text)
	if strings.HasPrefix(trimmed, "{") {
		var form ClaimForm
		if err := json.Unmarshal([]byte(trimmed), &form); err == nil {
			return form
		}
	}
	return ClaimForm{}
}

// SubmitterID returns the identity used to key stored results
func (s ClaimSubmission) SubmitterID() string {
	if id := strings.TrimSpace(s.Form().ID); id != "" {
		return id
	}
	return AnonymousSubmitter
}

// AnonymousSubmitter keys records whose form carries no submitter identity
const AnonymousSubmitter = "anonymous"

// ClaimData is the normalized view of a claim that deterministic tools operate on
type ClaimData struct {
	ClaimNumber      string `json:"claimNumber,omitempty" mapstructure:"claimNumber"`
	ClaimantName     string `json:"claimantName,omitempty" mapstructure:"claimantName"`
	ClaimType        string `json:"claimType,omitempty" mapstructure:"claimType"`
	ClaimDate        string `json:"claimDate,omitempty" mapstructure:"claimDate"`
	IncidentDate     string `json:"incidentDate,omitempty" mapstructure:"incidentDate"`
	IncidentLocation string `json:"incidentLocation,omitempty" mapstructure:"incidentLocation"`
	ReportDate       string `json:"reportDate,omitempty" mapstructure:"reportDate"`
	Description      string `json:"description,omitempty" mapstructure:"description"`
	Amount           string `json:"amount,omitempty" mapstructure:"amount"` // Raw amount; see AmountValue
	PolicyNumber     string `json:"policyNumber,omitempty" mapstructure:"policyNumber"`
	Email            string `json:"email,omitempty" mapstructure:"email"`
	Phone            string `json:"phone,omitempty" mapstructure:"phone"`
	Address          string `json:"address,omitempty" mapstructure:"address"`
}

// AmountValue parses the raw amount, tolerating currency symbols and separators
func (c ClaimData) AmountValue() (float64, bool) {
	raw := strings.TrimSpace(c.Amount)
	if raw == "" {
		return 0, false
	}
	raw = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "").Replace(raw)
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Fields returns the populated fields as a loosely typed map (tool input shape)
func (c ClaimData) Fields() map[string]any {
	fields := make(map[string]any)
	add := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			fields[key] = value
		}
	}
	add("claimNumber", c.ClaimNumber)
	add("claimantName", c.ClaimantName)
	add("claimType", c.ClaimType)
	add("claimDate", c.ClaimDate)
	add("incidentDate", c.IncidentDate)
	add("incidentLocation", c.IncidentLocation)
	add("reportDate", c.ReportDate)
	add("description", c.Description)
	add("amount", c.Amount)
	add("policyNumber", c.PolicyNumber)
	add("email", c.Email)
	add("phone", c.Phone)
	add("address", c.Address)
	return fields
}

// Has reports whether the named field is populated
func (c ClaimData) Has(field string) bool {
	_, ok := c.Fields()[field]
	return ok
}

// FromForm builds claim data from the submission form
func FromForm(form ClaimForm) ClaimData {
	return ClaimData{
		ClaimantName:     form.Name,
		ClaimType:        form.ClaimType,
		ClaimDate:        form.ClaimDate,
		IncidentDate:     form.IncidentDate,
		IncidentLocation: form.IncidentLocation,
		Description:      form.Description,
		Amount:           form.ClaimAmount,
		PolicyNumber:     form.PolicyNumber,
		Email:            form.Email,
		Phone:            form.Phone,
		Address:          form.Address,
	}
}

// Merge overlays populated fields of other onto c
func (c ClaimData) Merge(other ClaimData) ClaimData {
	pick := func(base, over string) string {
		if strings.TrimSpace(over) != "" {
			return over
		}
		return base
	}
	return ClaimData{
		ClaimNumber:      pick(c.ClaimNumber, other.ClaimNumber),
		ClaimantName:     pick(c.ClaimantName, other.ClaimantName),
		ClaimType:        pick(c.ClaimType, other.ClaimType),
		ClaimDate:        pick(c.ClaimDate, other.ClaimDate),
		IncidentDate:     pick(c.IncidentDate, other.IncidentDate),
		IncidentLocation: pick(c.IncidentLocation, other.IncidentLocation),
		ReportDate:       pick(c.ReportDate, other.ReportDate),
		Description:      pick(c.Description, other.Description),
		Amount:           pick(c.Amount, other.Amount),
		PolicyNumber:     pick(c.PolicyNumber, other.PolicyNumber),
		Email:            pick(c.Email, other.Email),
		Phone:            pick(c.Phone, other.Phone),
		Address:          pick(c.Address, other.Address),
	}
}

// dateLayouts are the date formats accepted in claim fields
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate parses a claim date in any of the accepted layouts
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysBetween returns the whole days elapsed from then to now (negative if then is in the future)
func DaysBetween(then, now time.Time) int {
	return int(now.Sub(then).Hours() / 24)
}
