// Package rules rewrites transcripts with substitution rules before intent
// extraction. It fixes recurring misrecognitions such as split district
// names.
//
// A rules file holds one rule per line. Blank lines and lines starting with
// '#' are ignored.
//
//	mira flores => Miraflores
//	s/\bdepas?\b/departamento/g
//
// Literal rules match whole words, ignore case and ignore accents on the
// source side. Regex rules use Go RE2 syntax with the i, g, m and s flags and
// are case-insensitive by default.
package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const defaultIterationLimit = 30

// Builtin holds corrections for misrecognitions common in Lima.
const Builtin = `
mira flores => Miraflores
sur co => Surco
chorri llos => Chorrillos
barran co => Barranco
s/\bmini\s+depa\b/monoambiente/g
s/\bdepas?\b/departamento/g
`

// Rule rewrites text, reporting whether anything changed.
type Rule interface {
	Apply(input string) (output string, changed bool)
}

// LineParser compiles one rule line.
type LineParser interface {
	CanParse(line string) bool
	Parse(line string) (Rule, error)
}

// Corrections applies substitution rules until the text is stable or the
// iteration limit is reached.
type Corrections struct {
	rules          []Rule
	iterationLimit int
}

// Load compiles the builtin rules followed by the rules in path. A blank or
// missing path yields only the builtin rules.
func Load(path string, iterationLimit int) (*Corrections, error) {
	return LoadWithParsers(path, iterationLimit, defaultLineParsers())
}

// LoadWithParsers is Load with custom line parsers.
func LoadWithParsers(path string, iterationLimit int, parsers []LineParser) (*Corrections, error) {
	if len(parsers) == 0 {
		parsers = defaultLineParsers()
	}

	compiled, err := parseRules(Builtin, parsers)
	if err != nil {
		return nil, fmt.Errorf("invalid builtin rules: %w", err)
	}

	if strings.TrimSpace(path) != "" {
		contents, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
		default:
			extra, err := parseRules(string(contents), parsers)
			if err != nil {
				return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
			}
			compiled = append(compiled, extra...)
		}
	}

	return New(compiled, iterationLimit), nil
}

// Parse compiles rules from text without the builtin set.
func Parse(text string, iterationLimit int) (*Corrections, error) {
	compiled, err := parseRules(text, defaultLineParsers())
	if err != nil {
		return nil, err
	}
	return New(compiled, iterationLimit), nil
}

func New(rules []Rule, iterationLimit int) *Corrections {
	if iterationLimit <= 0 {
		iterationLimit = defaultIterationLimit
	}
	return &Corrections{rules: rules, iterationLimit: iterationLimit}
}

// Len reports the number of compiled rules.
func (c *Corrections) Len() int {
	return len(c.rules)
}

// Apply rewrites text. It never fails; the error return lets it serve as an
// intent.Corrector.
func (c *Corrections) Apply(text string) (string, error) {
	if len(c.rules) == 0 {
		return text, nil
	}

	result := text
	for i := 0; i < c.iterationLimit; i++ {
		changed := false
		for _, r := range c.rules {
			if next, ok := r.Apply(result); ok {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result, nil
}

func parseRules(contents string, parsers []LineParser) ([]Rule, error) {
	lines := strings.Split(contents, "\n")
	compiled := make([]Rule, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var parser LineParser
		for _, candidate := range parsers {
			if candidate.CanParse(line) {
				parser = candidate
				break
			}
		}
		if parser == nil {
			return nil, fmt.Errorf("line %d: unsupported rule format", index+1)
		}

		r, err := parser.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", index+1, err)
		}
		compiled = append(compiled, r)
	}

	return compiled, nil
}

func defaultLineParsers() []LineParser {
	return []LineParser{regexLineParser{}, literalLineParser{}}
}

type literalLineParser struct{}

func (literalLineParser) CanParse(line string) bool {
	return strings.Contains(line, "=>")
}

func (literalLineParser) Parse(line string) (Rule, error) {
	return parseLiteralRule(line)
}

type regexLineParser struct{}

func (regexLineParser) CanParse(line string) bool {
	return looksLikeRegexRule(line)
}

func (regexLineParser) Parse(line string) (Rule, error) {
	return parseRegexRule(line)
}
