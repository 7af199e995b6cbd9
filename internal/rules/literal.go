package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var accentClasses = map[rune]string{
	'a': "[aáàä]",
	'e': "[eéèë]",
	'i': "[iíìï]",
	'o': "[oóòö]",
	'u': "[uúùü]",
	'n': "[nñ]",
}

// literalRule replaces whole-word occurrences of a phrase. The surrounding
// separators are captured so matches can sit at any position.
type literalRule struct {
	replacement string
	re          *regexp.Regexp
}

func parseLiteralRule(line string) (Rule, error) {
	from, to, ok := strings.Cut(line, "=>")
	if !ok {
		return nil, errors.New("invalid literal rule")
	}
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}

	re, err := regexp.Compile(`(?i)(^|[^\p{L}\p{N}])(` + literalPattern(from) + `)($|[^\p{L}\p{N}])`)
	if err != nil {
		return nil, fmt.Errorf("invalid literal source: %w", err)
	}
	return literalRule{replacement: to, re: re}, nil
}

// literalPattern quotes the source, folds accents on vowels and ñ, and lets
// any run of whitespace separate words.
func literalPattern(source string) string {
	var builder strings.Builder
	for i, word := range strings.Fields(strings.ToLower(source)) {
		if i > 0 {
			builder.WriteString(`\s+`)
		}
		for _, r := range word {
			if class, ok := accentClasses[foldAccent(r)]; ok {
				builder.WriteString(class)
				continue
			}
			builder.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return builder.String()
}

func foldAccent(r rune) rune {
	switch r {
	case 'á', 'à', 'ä':
		return 'a'
	case 'é', 'è', 'ë':
		return 'e'
	case 'í', 'ì', 'ï':
		return 'i'
	case 'ó', 'ò', 'ö':
		return 'o'
	case 'ú', 'ù', 'ü':
		return 'u'
	case 'ñ':
		return 'n'
	default:
		return r
	}
}

func (r literalRule) Apply(input string) (string, bool) {
	matches := r.re.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return input, false
	}

	var builder strings.Builder
	last := 0
	for _, m := range matches {
		// m[4:6] is the phrase itself; the separators around it stay.
		builder.WriteString(input[last:m[4]])
		builder.WriteString(r.replacement)
		last = m[5]
	}
	builder.WriteString(input[last:])

	output := builder.String()
	return output, output != input
}
