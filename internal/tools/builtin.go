package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"github.com/ppiankov/claimflow/internal/extract"
	"github.com/ppiankov/claimflow/internal/model"
	"github.com/ppiankov/claimflow/internal/score"
	"github.com/ppiankov/claimflow/internal/validate"
)

// errNoClaimData is reported by claim-level tools given nothing to work on
var errNoClaimData = errors.New("claimData is required")

// Builtins is the set of deterministic tools behind the built-in names
type Builtins struct {
	parser     *extract.DocumentParser
	converter  *extract.DataConverter
	validator  *validate.SchemaValidator
	classifier *validate.DocumentClassifier
	rules      *score.RulesEngine
	risk       *score.RiskScorer
	quality    *score.QualityScorer
}

// NewBuiltins wires the deterministic tools from the scoring configuration
func NewBuiltins(cfg model.ScoringConfig, now func() time.Time) *Builtins {
	if now == nil {
		now = time.Now
	}
	return &Builtins{
		parser:     extract.NewDocumentParser(),
		converter:  extract.NewDataConverter(now),
		validator:  validate.NewSchemaValidator(cfg.Quality.MinDescription),
		classifier: validate.NewDocumentClassifier(now),
		rules:      score.NewRulesEngine(cfg.Rules, now),
		risk:       score.NewRiskScorer(cfg.Risk, cfg.Levels, now),
		quality:    score.NewQualityScorer(cfg.Quality),
	}
}

// RegisterBuiltins registers the seven built-in tools
func RegisterBuiltins(reg *Registry, cfg model.ScoringConfig, now func() time.Time) error {
	b := NewBuiltins(cfg, now)

	claimProp := Property{Type: "object", Description: "Claim fields (claimantName, claimType, amount, incidentDate, description, ...)"}

	defs := []struct {
		desc    Descriptor
		handler Handler
	}{
		{
			Descriptor{
				Name:        DocumentParser,
				Description: "Parse a claim document (JSON, form data or free text) into structured claim fields",
				Input: InputSchema{
					Required: []string{"document"},
					Properties: map[string]Property{
						"document":     {Type: "string", Description: "Claim document as JSON text, an object, or plain text"},
						"documentType": {Type: "string", Description: "Document type label", Enum: []any{"claim_form", "narrative"}},
					},
				},
			},
			b.parseDocument,
		},
		{
			Descriptor{
				Name:        DataConverter,
				Description: "Convert claim data into a target schema",
				Input: InputSchema{
					Required: []string{"data"},
					Properties: map[string]Property{
						"data":         {Type: "object", Description: "Claim data to convert"},
						"targetSchema": {Type: "string", Description: "Target schema", Enum: []any{extract.SchemaClaimIntake, extract.SchemaEnrichedClaim, extract.SchemaRouting}},
					},
				},
			},
			b.convertData,
		},
		{
			Descriptor{
				Name:        SchemaValidator,
				Description: "Validate claim data against a schema and report missing or invalid fields",
				Input: InputSchema{
					Required: []string{"data"},
					Properties: map[string]Property{
						"data":   {Type: "object", Description: "Data to validate"},
						"schema": {Type: "string", Description: "Schema name", Enum: []any{validate.SchemaClaimIntake, validate.SchemaRouting}},
					},
				},
			},
			b.validateSchema,
		},
		{
			Descriptor{
				Name:        DocumentClassifier,
				Description: "Classify a claim by insurance category, severity, urgency and completeness",
				Input: InputSchema{
					Required:   []string{"claimData"},
					Properties: map[string]Property{"claimData": claimProp},
				},
			},
			b.classify,
		},
		{
			Descriptor{
				Name:        RulesEngine,
				Description: "Evaluate fraud detection rules against a claim",
				Input: InputSchema{
					Required: []string{"claimData"},
					Properties: map[string]Property{
						"claimData": claimProp,
						"ruleSet":   {Type: "string", Description: "Rule set name", Enum: []any{score.BasicFraudRules}},
					},
				},
			},
			b.evaluateRules,
		},
		{
			Descriptor{
				Name:        RiskCalculator,
				Description: "Calculate a 0-100 risk score and level from claim factors",
				Input: InputSchema{
					Required:   []string{"claimData"},
					Properties: map[string]Property{"claimData": claimProp},
				},
			},
			b.calculateRisk,
		},
		{
			Descriptor{
				Name:        QualityChecker,
				Description: "Score claim data quality for completeness, consistency and integrity",
				Input: InputSchema{
					Required: []string{"claimData"},
					Properties: map[string]Property{
						"claimData": claimProp,
						"minimum":   {Type: "number", Description: "Minimum passing quality score"},
					},
				},
			},
			b.checkQuality,
		},
	}

	for _, d := range defs {
		if err := reg.Register(d.desc, d.handler); err != nil {
			return err
		}
	}
	return nil
}

type parserInput struct {
	Document     any    `mapstructure:"document"`
	DocumentType string `mapstructure:"documentType"`
}

func (b *Builtins) parseDocument(_ context.Context, input map[string]any) model.ToolResult {
	var in parserInput
	if err := decodeInput(input, &in); err != nil {
		return Failure(err)
	}
	parsed, err := b.parser.Parse(in.Document, in.DocumentType)
	if err != nil {
		return Failure(err)
	}
	return Success(parsed)
}

type converterInput struct {
	Data         any    `mapstructure:"data"`
	TargetSchema string `mapstructure:"targetSchema"`
}

func (b *Builtins) convertData(_ context.Context, input map[string]any) model.ToolResult {
	var in converterInput
	if err := decodeInput(input, &in); err != nil {
		return Failure(err)
	}
	data, err := toMap(in.Data)
	if err != nil {
		return Failure(err)
	}
	out, err := b.converter.Convert(data, in.TargetSchema)
	if err != nil {
		return Failure(err)
	}
	return Success(out)
}

type validatorInput struct {
	Data   any    `mapstructure:"data"`
	Schema string `mapstructure:"schema"`
}

func (b *Builtins) validateSchema(_ context.Context, input map[string]any) model.ToolResult {
	var in validatorInput
	if err := decodeInput(input, &in); err != nil {
		return Failure(err)
	}
	data, err := toMap(in.Data)
	if err != nil {
		return Failure(err)
	}
	out, err := b.validator.Validate(data, in.Schema)
	if err != nil {
		return Failure(err)
	}
	return Success(out)
}

func (b *Builtins) classify(_ context.Context, input map[string]any) model.ToolResult {
	claim, err := claimFrom(input)
	if err != nil {
		return Failure(err)
	}
	return Success(b.classifier.Classify(claim))
}

type rulesInput struct {
	RuleSet string `mapstructure:"ruleSet"`
}

func (b *Builtins) evaluateRules(_ context.Context, input map[string]any) model.ToolResult {
	var in rulesInput
	if err := decodeInput(input, &in); err != nil {
		return Failure(err)
	}
	claim, err := claimFrom(input)
	if err != nil {
		return Failure(err)
	}
	out, err := b.rules.Evaluate(in.RuleSet, claim)
	if err != nil {
		return Failure(err)
	}
	return Success(out)
}

func (b *Builtins) calculateRisk(_ context.Context, input map[string]any) model.ToolResult {
	claim, err := claimFrom(input)
	if err != nil {
		return Failure(err)
	}
	return Success(b.risk.Calculate(claim))
}

type qualityInput struct {
	Minimum float64 `mapstructure:"minimum"`
}

func (b *Builtins) checkQuality(_ context.Context, input map[string]any) model.ToolResult {
	var in qualityInput
	if err := decodeInput(input, &in); err != nil {
		return Failure(err)
	}
	claim, err := claimFrom(input)
	if err != nil {
		return Failure(err)
	}
	return Success(b.quality.Check(claim, in.Minimum))
}

// decodeInput decodes a loosely typed tool input into out
func decodeInput(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("invalid tool input: %w", err)
	}
	return nil
}

// toMap accepts an object, claim data, or a JSON object string
func toMap(v any) (map[string]any, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case model.ClaimData:
		return d.Fields(), nil
	case *model.ClaimData:
		return d.Fields(), nil
	}
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, fmt.Errorf("data must be an object: %w", err)
	}
	return m, nil
}

// claimFrom reads claim fields from input["claimData"], or from the input itself
func claimFrom(input map[string]any) (model.ClaimData, error) {
	raw, ok := input["claimData"]
	if !ok {
		raw = input
	}
	m, err := toMap(raw)
	if err != nil {
		return model.ClaimData{}, err
	}
	claim, err := extract.ClaimDataFromMap(m)
	if err != nil {
		return model.ClaimData{}, err
	}
	if claim == (model.ClaimData{}) {
		return model.ClaimData{}, errNoClaimData
	}
	return claim, nil
}
