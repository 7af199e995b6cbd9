package intent

import (
	"strconv"
	"strings"

	"vozbusca/internal/domain"
	"vozbusca/internal/vocab"
)

type amount struct {
	value  float64
	factor float64
	next   int
}

// extractPrices scans for range and bound phrases. The first phrase that
// sets a bound wins; later ones for the same bound are ignored.
func (p *Parser) extractPrices(tokens []string, q *domain.ParsedQuery) {
	for index := 0; index < len(tokens); {
		if next, ok := p.priceRange(tokens, index, q); ok {
			index = next
			continue
		}
		if next, ok := p.priceBound(tokens, index, q); ok {
			index = next
			continue
		}
		index++
	}
}

func (p *Parser) priceRange(tokens []string, index int, q *domain.ParsedQuery) (int, bool) {
	opener, ok := matchAt(p.rangeOpeners, tokens, index)
	if !ok {
		return 0, false
	}
	low, ok := p.parseAmount(tokens, index+len(opener.tokens))
	if !ok {
		return 0, false
	}
	sep, ok := matchAt(p.rangeSeps, tokens, low.next)
	if !ok {
		return 0, false
	}
	high, ok := p.parseAmount(tokens, low.next+len(sep.tokens))
	if !ok {
		return 0, false
	}

	// "entre 1 y 2 mil" shares the multiplier of the upper amount.
	if low.factor == 1 && high.factor > 1 && low.value*high.factor <= high.value {
		low.value *= high.factor
	}
	minValue, maxValue := low.value, high.value
	if minValue > maxValue {
		minValue, maxValue = maxValue, minValue
	}
	if q.MinPrice == nil {
		q.MinPrice = &minValue
	}
	if q.MaxPrice == nil {
		q.MaxPrice = &maxValue
	}
	return high.next, true
}

func (p *Parser) priceBound(tokens []string, index int, q *domain.ParsedQuery) (int, bool) {
	pattern, ok := matchAt(p.prices, tokens, index)
	if !ok {
		return 0, false
	}
	parsed, ok := p.parseAmount(tokens, index+len(pattern.tokens))
	if !ok {
		return 0, false
	}

	value := parsed.value
	switch pattern.value {
	case vocab.PriceBoundMax:
		if q.MaxPrice == nil {
			q.MaxPrice = &value
		}
	case vocab.PriceBoundMin:
		if q.MinPrice == nil {
			q.MinPrice = &value
		}
	}
	return parsed.next, true
}

// parseAmount reads a price starting at index: optional currency, a numeral
// or number word, an optional multiplier ("mil", "k") and optional trailing
// currency. Bare number words without a multiplier are not amounts, and
// neither is anything followed by a bedroom or bathroom keyword.
func (p *Parser) parseAmount(tokens []string, index int) (amount, bool) {
	index = p.skipCurrency(tokens, index)
	if index >= len(tokens) {
		return amount{}, false
	}

	result := amount{factor: 1}
	numeric := false
	token := tokens[index]

	if value, suffixed, ok := parseNumeral(token); ok {
		result.value = value
		numeric = true
		if suffixed {
			result.value *= p.multiplierOr("k", 1e3)
			result.factor = p.multiplierOr("k", 1e3)
		}
		index++
	} else if value, ok := p.numberWords[token]; ok {
		result.value = float64(value)
		index++
	} else if _, ok := p.multipliers[token]; ok {
		result.value = 1
	} else {
		return amount{}, false
	}

	if result.factor == 1 && index < len(tokens) {
		if factor, ok := p.multipliers[tokens[index]]; ok {
			result.value *= factor
			result.factor = factor
			index++
			if index < len(tokens) && isDigits(tokens[index]) && !p.isCountKeyword(tokens, index+1) {
				if rest, err := strconv.ParseFloat(tokens[index], 64); err == nil && rest < factor {
					result.value += rest
					index++
				}
			}
		}
	}

	if !numeric && result.factor == 1 {
		return amount{}, false
	}
	if p.isCountKeyword(tokens, index) {
		return amount{}, false
	}

	result.next = p.skipCurrency(tokens, index)
	return result, true
}

func (p *Parser) skipCurrency(tokens []string, index int) int {
	for index < len(tokens) {
		word, ok := matchAt(p.currency, tokens, index)
		if !ok {
			return index
		}
		index += len(word.tokens)
	}
	return index
}

func (p *Parser) multiplierOr(word string, fallback float64) float64 {
	if factor, ok := p.multipliers[word]; ok {
		return factor
	}
	return fallback
}

// parseNumeral accepts digits with an optional decimal part and an optional
// "k" suffix, e.g. "2000", "1.5", "2k".
func parseNumeral(token string) (float64, bool, bool) {
	suffixed := strings.HasSuffix(token, "k")
	digits := strings.TrimSuffix(token, "k")
	if digits == "" {
		return 0, false, false
	}

	dots := 0
	for _, char := range digits {
		switch {
		case char == '.':
			dots++
		case char < '0' || char > '9':
			return 0, false, false
		}
	}
	if dots > 1 || strings.HasPrefix(digits, ".") || strings.HasSuffix(digits, ".") {
		return 0, false, false
	}

	value, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false, false
	}
	return value, suffixed, true
}
