package model

import "strings"

// Level is the categorical risk or severity label
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// ParseLevel parses a level case-insensitively
func ParseLevel(s string) (Level, bool) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelLow:
		return LevelLow, true
	case LevelMedium:
		return LevelMedium, true
	case LevelHigh:
		return LevelHigh, true
	case LevelCritical:
		return LevelCritical, true
	}
	return "", false
}

// Elevated reports whether the level warrants human review
func (l Level) Elevated() bool {
	return l == LevelHigh || l == LevelCritical
}

// LevelThresholds maps a 0-100 score to a level; each field is the inclusive lower bound
type LevelThresholds struct {
	Medium   float64 `yaml:"medium" mapstructure:"medium"`
	High     float64 `yaml:"high" mapstructure:"high"`
	Critical float64 `yaml:"critical" mapstructure:"critical"`
}

// DefaultLevelThresholds returns the standard 30/50/70 table
func DefaultLevelThresholds() LevelThresholds {
	return LevelThresholds{
		Medium:   30,
		High:     50,
		Critical: 70,
	}
}

// LevelFor maps a 0-100 score to exactly one level
func (t LevelThresholds) LevelFor(score float64) Level {
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// LevelForProbability maps a 0-1 probability through the same table
func (t LevelThresholds) LevelForProbability(p float64) Level {
	return t.LevelFor(p * 100)
}
