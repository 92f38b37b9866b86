package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/claimflow/internal/model"
)

// ErrEmptyDocument is returned when there is nothing to parse
var ErrEmptyDocument = errors.New("document content is required")

// ParsedDocument is the output of the document parser
type ParsedDocument struct {
	DocumentType string          `json:"documentType"`
	Claim        model.ClaimData `json:"claim"`
	Narrative    string          `json:"narrative,omitempty"`
	Raw          map[string]any  `json:"rawData"`
}

// DocumentParser turns a claim document into normalized claim fields
type DocumentParser struct{}

// NewDocumentParser creates a new document parser
func NewDocumentParser() *DocumentParser {
	return &DocumentParser{}
}

// Parse accepts a JSON string, plain or HTML text, or an already decoded map
func (p *DocumentParser) Parse(document any, documentType string) (*ParsedDocument, error) {
	if documentType == "" {
		documentType = "claim_form"
	}

	raw, narrative, err := p.decode(document)
	if err != nil {
		return nil, err
	}

	// A submission envelope carries its narrative next to the form
	if text, ok := raw["text"].(string); ok && narrative == "" {
		narrative = PlainText(text)
	}

	claim, err := ClaimDataFromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("parse fields: %w", err)
	}
	if claim.Description == "" && narrative != "" {
		claim.Description = narrative
	}

	return &ParsedDocument{
		DocumentType: documentType,
		Claim:        claim,
		Narrative:    narrative,
		Raw:          raw,
	}, nil
}

// decode normalizes the document into a map and an optional narrative
func (p *DocumentParser) decode(document any) (map[string]any, string, error) {
	switch doc := document.(type) {
	case nil:
		return nil, "", ErrEmptyDocument

	case map[string]any:
		if len(doc) == 0 {
			return nil, "", ErrEmptyDocument
		}
		return doc, "", nil

	case model.ClaimSubmission:
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, "", fmt.Errorf("encode submission: %w", err)
		}
		return p.decode(string(data))

	case string:
		trimmed := strings.TrimSpace(doc)
		if trimmed == "" {
			return nil, "", ErrEmptyDocument
		}
		var parsed map[string]any
		if strings.HasPrefix(trimmed, "{") {
			if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
				return parsed, "", nil
			}
		}
		text := PlainText(trimmed)
		return map[string]any{"rawText": text}, text, nil

	default:
		// Round-trip structs and other JSON-compatible values
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, "", fmt.Errorf("unsupported document type %T", document)
		}
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, "", fmt.Errorf("unsupported document type %T", document)
		}
		return parsed, "", nil
	}
}
