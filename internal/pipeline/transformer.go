// =============================================================================
// CSV Reconciler - Transformation Engine
// =============================================================================
//
// This module rewrites cell values of named columns before reconciliation.
// Deployments use it to line up two exports that spell the same customer
// differently, or to strip decoration from amounts.
//
// TRANSFORMATION TYPES:
//   - String manipulations (prepend, append, trim, case conversion)
//   - Substring and regular expression replacement
//   - Character removal and whitespace normalization
//   - Lookup table replacements
//
// Only text cells are transformed. Numeric cells from spreadsheets are left
// alone. With no rules configured, tables pass through unchanged.
//
// =============================================================================

package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the transformation rules of one dataset.
type Transformer struct {
	rules   []config.TransformationRule
	regexes map[string]*regexp.Regexp
}

// NewTransformer checks the rules and compiles their patterns.
//
// RETURNS:
//   - The transformer.
//   - An error naming the first unknown action type or invalid pattern.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	t := &Transformer{
		rules:   rules,
		regexes: make(map[string]*regexp.Regexp),
	}

	for _, rule := range rules {
		for _, action := range rule.Actions {
			if !knownActions[action.Type] {
				return nil, fmt.Errorf("field %q: unknown transformation %q", rule.Field, action.Type)
			}
			if action.Type != "regex_replace" || action.Find == "" {
				continue
			}
			if _, ok := t.regexes[action.Find]; ok {
				continue
			}
			re, err := regexp.Compile(action.Find)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid regex pattern: %w", rule.Field, err)
			}
			t.regexes[action.Find] = re
		}
	}

	return t, nil
}

// Empty reports whether the transformer has no rules.
func (t *Transformer) Empty() bool {
	return len(t.rules) == 0
}

// ApplyTable transforms the text cells of every column that has a rule. Rules
// for columns the table does not have are skipped.
//
// RETURNS:
//   - The number of cells whose value changed.
func (t *Transformer) ApplyTable(table *types.Table) int {
	changed := 0

	for _, rule := range t.rules {
		col := table.ColumnIndex(rule.Field)
		if col < 0 {
			continue
		}

		for _, row := range table.Rows {
			if col >= len(row) || row[col].Kind != types.KindText {
				continue
			}
			result := t.Transform(row[col].Text, rule.Actions)
			if result != row[col].Text {
				row[col] = types.Text(result)
				changed++
			}
		}
	}

	return changed
}

// Transform applies the actions to a value in sequence.
func (t *Transformer) Transform(value string, actions []config.TransformationAction) string {
	result := value
	for _, action := range actions {
		result = t.apply(result, action)
	}
	return result
}

// =============================================================================
// TRANSFORMATION FUNCTIONS
// =============================================================================

var knownActions = map[string]bool{
	"prepend_string":       true,
	"append_string":        true,
	"trim":                 true,
	"trim_left":            true,
	"trim_right":           true,
	"uppercase":            true,
	"lowercase":            true,
	"title_case":           true,
	"replace":              true,
	"regex_replace":        true,
	"remove_chars":         true,
	"normalize_whitespace": true,
	"lookup":               true,
	"lookup_with_default":  true,
}

// apply applies a single transformation action. Types are checked by
// NewTransformer.
func (t *Transformer) apply(value string, action config.TransformationAction) string {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case "prepend_string":
		return action.Value + value

	case "append_string":
		return value + action.Value

	case "trim":
		return strings.TrimSpace(value)

	case "trim_left":
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value)
		}
		return strings.TrimLeft(value, " \t\n\r")

	case "trim_right":
		if action.Value != "" {
			return strings.TrimRight(value, action.Value)
		}
		return strings.TrimRight(value, " \t\n\r")

	case "uppercase":
		return strings.ToUpper(value)

	case "lowercase":
		return strings.ToLower(value)

	case "title_case":
		// A Caser is stateful, so each call gets its own.
		return cases.Title(language.Und).String(strings.ToLower(value))

	// =========================================================================
	// REPLACEMENT
	// =========================================================================

	case "replace":
		// EXAMPLE:
		//   Input: "ACME Ltd."
		//   Action: replace with find " Ltd." and value ""
		//   Output: "ACME"
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)

	case "regex_replace":
		// EXAMPLE:
		//   Input: "$1,250.00"
		//   Action: regex_replace with find "[$€£]" and value ""
		//   Output: "1,250.00"
		re, ok := t.regexes[action.Find]
		if !ok {
			return value
		}
		return re.ReplaceAllString(value, action.Value)

	case "remove_chars":
		// Every character listed in Value is removed.
		return strings.Map(func(r rune) rune {
			if strings.ContainsRune(action.Value, r) {
				return -1
			}
			return r
		}, value)

	case "normalize_whitespace":
		return strings.Join(strings.Fields(value), " ")

	// =========================================================================
	// LOOKUP TABLES
	// =========================================================================

	case "lookup":
		// Unmatched values pass through.
		if mapped, ok := action.LookupTable[value]; ok {
			return mapped
		}
		return value

	case "lookup_with_default":
		// Unmatched values become Value.
		if mapped, ok := action.LookupTable[value]; ok {
			return mapped
		}
		return action.Value

	default:
		return value
	}
}
