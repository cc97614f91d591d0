package domain

import (
	"fmt"
	"unicode/utf8"
)

// RuleTitleLength tags a violation of the title length bounds.
const RuleTitleLength = "title_length"

// FormRules holds the bounds applied by Validate.
type FormRules struct {
	TitleMin int `json:"title_min"`
	TitleMax int `json:"title_max"`
}

// DefaultFormRules are the bounds used when none are configured.
var DefaultFormRules = FormRules{TitleMin: 3, TitleMax: 25}

// FormViolation describes one failed validation rule with its bounds and the
// observed measurement.
type FormViolation struct {
	Rule   string `json:"rule"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
	Actual int    `json:"actual"`
}

// TitleLength builds a title length violation.
func TitleLength(min, max, actual int) FormViolation {
	return FormViolation{Rule: RuleTitleLength, Min: min, Max: max, Actual: actual}
}

// Message renders the violation for display next to the offending field.
func (v FormViolation) Message() string {
	switch v.Rule {
	case RuleTitleLength:
		return fmt.Sprintf("Title too short: %d characters, minimum: %d", v.Actual, v.Min)
	default:
		return fmt.Sprintf("%s: %d (expected %d-%d)", v.Rule, v.Actual, v.Min, v.Max)
	}
}

// Validate checks the form against rules and returns every violation found.
// An empty result means the form is valid.
//
// Only the lower title bound fails validation; the upper bound is reported in
// the violation so the presentation layer can show the allowed range.
func Validate(form FormState, rules FormRules) []FormViolation {
	var violations []FormViolation

	n := utf8.RuneCountInString(form.Title)
	if n < rules.TitleMin {
		violations = append(violations, TitleLength(rules.TitleMin, rules.TitleMax, n))
	}

	return violations
}
