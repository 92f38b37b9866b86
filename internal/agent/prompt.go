package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section is one titled block of context embedded in a prompt
type Section struct {
	Title string
	Value any
}

// BuildPrompt renders a task, its context blocks and the expected reply shape
func BuildPrompt(task string, sections []Section, schema string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(task))
	b.WriteString("\n")

	for _, s := range sections {
		fmt.Fprintf(&b, "\n%s:\n%s\n", s.Title, render(s.Value))
	}

	b.WriteString("\nRespond with a single JSON object of this shape and nothing else:\n")
	b.WriteString(strings.TrimSpace(schema))
	b.WriteString("\n")
	return b.String()
}

func render(v any) string {
	if s, ok := v.(string); ok {
		if strings.TrimSpace(s) == "" {
			return "(none)"
		}
		return s
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
