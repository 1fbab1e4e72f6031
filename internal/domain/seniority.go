package domain

import (
	"fmt"
	"strings"
)

// Seniority is the closed set of freelancer experience tiers.
type Seniority string

const (
	SeniorityJunior Seniority = "junior"
	SeniorityMid    Seniority = "mid"
	SenioritySenior Seniority = "senior"
	SeniorityExpert Seniority = "expert"
)

// Seniorities lists all valid levels in ascending order.
var Seniorities = []Seniority{SeniorityJunior, SeniorityMid, SenioritySenior, SeniorityExpert}

// ParseSeniority normalizes and validates a seniority string.
func ParseSeniority(s string) (Seniority, error) {
	normalized := Seniority(strings.ToLower(strings.TrimSpace(s)))
	for _, level := range Seniorities {
		if normalized == level {
			return level, nil
		}
	}
	return "", &ErrValidation{
		Field:   "seniority_level",
		Message: fmt.Sprintf("must be one of: junior, mid, senior, expert (got %q)", s),
	}
}

// Valid reports whether s is a recognized seniority level.
func (s Seniority) Valid() bool {
	_, err := ParseSeniority(string(s))
	return err == nil
}

// Multiplier returns the rate multiplier for the seniority tier.
// Unknown values fall back to the mid multiplier.
func (s Seniority) Multiplier() float64 {
	switch s {
	case SeniorityJunior:
		return 0.8
	case SeniorityMid:
		return 1.0
	case SenioritySenior:
		return 1.3
	case SeniorityExpert:
		return 1.5
	default:
		return 1.0
	}
}

// SeniorityFromExperience classifies years of experience into a tier.
func SeniorityFromExperience(years float64) Seniority {
	switch {
	case years < 2:
		return SeniorityJunior
	case years < 5:
		return SeniorityMid
	case years < 10:
		return SenioritySenior
	default:
		return SeniorityExpert
	}
}
