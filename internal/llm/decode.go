package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrOracleDecode marks an oracle reply that is not a valid decision
var ErrOracleDecode = errors.New("oracle response could not be decoded")

// Decision is a typed oracle answer that can check its own invariants
type Decision interface {
	Validate() error
}

// DecodeError carries the raw reply that failed to decode
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", ErrOracleDecode, e.Err)
}

// Unwrap returns the underlying cause
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrOracleDecode) hold for every DecodeError
func (e *DecodeError) Is(target error) bool {
	return target == ErrOracleDecode
}

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFence  = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

// ExtractJSON returns the first balanced JSON object in text,
// after dropping reasoning blocks and unwrapping code fences.
func ExtractJSON(text string) (string, error) {
	text = thinkBlock.ReplaceAllString(text, "")
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errors.New("no JSON object found")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON object")
}

// Decode extracts, unmarshals and validates a decision from raw oracle text
func Decode(text string, out Decision) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return &DecodeError{Raw: text, Err: err}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &DecodeError{Raw: text, Err: err}
	}
	if err := out.Validate(); err != nil {
		return &DecodeError{Raw: text, Err: err}
	}
	return nil
}
