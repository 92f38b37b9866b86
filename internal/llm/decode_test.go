package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Valid *bool   `json:"isValid"`
	Score float64 `json:"validationScore"`
}

func (v *verdict) Validate() error {
	if v.Valid == nil {
		return errors.New("isValid is required")
	}
	if v.Score < 0 || v.Score > 100 {
		return errors.New("validationScore out of range")
	}
	return nil
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"surrounding prose", `Sure! Here it is: {"a":1} hope that helps`, `{"a":1}`},
		{"fenced", "```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`},
		{"think block", `<think>maybe {"wrong":true}</think>{"right":true}`, `{"right":true}`},
		{"braces in strings", `{"s":"a } b { c","n":1}`, `{"s":"a } b { c","n":1}`},
		{"escaped quote", `{"s":"say \"}\" now"}`, `{"s":"say \"}\" now"}`},
		{"first of two", `{"a":1} {"b":2}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON_Errors(t *testing.T) {
	_, err := ExtractJSON("I cannot help with that")
	assert.Error(t, err)

	_, err = ExtractJSON(`{"a": {"b": 1}`)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	var v verdict
	require.NoError(t, Decode("```\n{\"isValid\": true, \"validationScore\": 88}\n```", &v))
	assert.True(t, *v.Valid)
	assert.Equal(t, 88.0, v.Score)
}

func TestDecode_Failures(t *testing.T) {
	tests := map[string]string{
		"not json":        "The claim looks fine to me.",
		"wrong type":      `{"isValid": "yes"}`,
		"missing key":     `{"validationScore": 50}`,
		"score too large": `{"isValid": true, "validationScore": 140}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var v verdict
			err := Decode(raw, &v)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrOracleDecode)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, raw, decodeErr.Raw)
		})
	}
}
