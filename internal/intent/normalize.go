package intent

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases text, strips diacritics, turns punctuation into
// spaces and collapses whitespace. Digit groups written with thousands
// separators ("2,000", "2.000") are joined; other separators between digits
// become a decimal point ("2,5" -> "2.5").
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, strings.ToLower(text))
	if err != nil {
		stripped = strings.ToLower(text)
	}

	source := []rune(stripped)
	var builder strings.Builder
	builder.Grow(len(stripped))

	for index, char := range source {
		switch {
		case unicode.IsLetter(char) || unicode.IsDigit(char):
			builder.WriteRune(char)
		case (char == '.' || char == ',') && betweenDigits(source, index):
			if digitRunAfter(source, index) == 3 {
				continue
			}
			builder.WriteByte('.')
		default:
			builder.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(builder.String()), " ")
}

func betweenDigits(source []rune, index int) bool {
	return index > 0 && index+1 < len(source) &&
		unicode.IsDigit(source[index-1]) && unicode.IsDigit(source[index+1])
}

func digitRunAfter(source []rune, index int) int {
	count := 0
	for next := index + 1; next < len(source) && unicode.IsDigit(source[next]); next++ {
		count++
	}
	return count
}
