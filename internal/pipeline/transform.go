// internal/pipeline/transform.go
package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TransformRule defines a single transformation rule
type TransformRule struct {
	Type        string `yaml:"type" json:"type"`
	Pattern     string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Replacement string `yaml:"replacement,omitempty" json:"replacement,omitempty"`
	Value       string `yaml:"value,omitempty" json:"value,omitempty"`

	re *regexp.Regexp
}

// TransformList represents a list of transformation rules applied in order
type TransformList []TransformRule

var (
	spacesRe  = regexp.MustCompile(`\s+`)
	numberRe  = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	nonDigits = regexp.MustCompile(`[^0-9]`)
)

// compile validates every rule and prepares its pattern.
func (tl TransformList) compile() (TransformList, error) {
	out := make(TransformList, len(tl))
	for i, rule := range tl {
		switch rule.Type {
		case "trim", "normalize_spaces", "lowercase", "uppercase",
			"extract_number", "clean_price", "parse_int", "parse_float":
		case "regex":
			if rule.Pattern == "" {
				return nil, fmt.Errorf("rule %d: regex pattern is required", i)
			}
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d: invalid regex pattern: %w", i, err)
			}
			rule.re = re
		case "replace":
			if rule.Pattern == "" {
				return nil, fmt.Errorf("rule %d: replace requires a pattern", i)
			}
		case "prefix", "suffix":
			if rule.Value == "" {
				return nil, fmt.Errorf("rule %d: %s requires a value", i, rule.Type)
			}
		default:
			return nil, fmt.Errorf("rule %d: unknown transform type: %s", i, rule.Type)
		}
		out[i] = rule
	}
	return out, nil
}

// Apply applies all transformation rules in sequence to the input string
func (tl TransformList) Apply(input string) (string, error) {
	result := input
	for i, rule := range tl {
		var err error
		result, err = rule.Apply(result)
		if err != nil {
			return "", fmt.Errorf("transform rule %d (%s) failed: %w", i, rule.Type, err)
		}
	}
	return result, nil
}

// Apply applies a single transformation rule to the input string
func (tr TransformRule) Apply(input string) (string, error) {
	switch tr.Type {
	case "trim":
		return strings.TrimSpace(input), nil

	case "normalize_spaces":
		return spacesRe.ReplaceAllString(strings.TrimSpace(input), " "), nil

	case "lowercase":
		return strings.ToLower(input), nil

	case "uppercase":
		return strings.ToUpper(input), nil

	case "extract_number":
		// First number in the text; "4,8 (12 отзывов)" yields "4.8".
		match := numberRe.FindString(input)
		return strings.Replace(match, ",", ".", 1), nil

	case "clean_price":
		// Prices use spaces or NBSP as thousands separators: "129 990 ₸".
		return nonDigits.ReplaceAllString(input, ""), nil

	case "parse_int":
		cleaned := strings.TrimSpace(input)
		if cleaned == "" {
			return "", nil
		}
		val, err := strconv.Atoi(cleaned)
		if err != nil {
			return "", fmt.Errorf("parse_int failed: %w", err)
		}
		return strconv.Itoa(val), nil

	case "parse_float":
		cleaned := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
		if cleaned == "" {
			return "", nil
		}
		val, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return "", fmt.Errorf("parse_float failed: %w", err)
		}
		return strconv.FormatFloat(val, 'f', -1, 64), nil

	case "regex":
		re := tr.re
		if re == nil {
			var err error
			if re, err = regexp.Compile(tr.Pattern); err != nil {
				return "", fmt.Errorf("invalid regex pattern: %w", err)
			}
		}
		return re.ReplaceAllString(input, tr.Replacement), nil

	case "replace":
		return strings.ReplaceAll(input, tr.Pattern, tr.Replacement), nil

	case "prefix":
		return tr.Value + input, nil

	case "suffix":
		return input + tr.Value, nil

	default:
		return "", fmt.Errorf("unknown transform type: %s", tr.Type)
	}
}

// ValidateTransformRules validates transformation rule configuration
func ValidateTransformRules(rules TransformList) error {
	_, err := rules.compile()
	return err
}
