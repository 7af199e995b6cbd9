// Package intent turns a finalized Spanish transcript into property search
// slots using the vocabulary tables.
package intent

import (
	"strconv"
	"strings"

	"vozbusca/internal/domain"
	"vozbusca/internal/vocab"
)

// countWindow is how many tokens before a bedroom/bathroom keyword are
// searched for its count.
const countWindow = 2

// Corrector rewrites a transcript before parsing, typically fixing known
// misrecognitions.
type Corrector interface {
	Apply(text string) (string, error)
}

type Option func(*Parser)

// WithCorrector runs c over every transcript before normalization.
func WithCorrector(c Corrector) Option {
	return func(p *Parser) {
		p.corrector = c
	}
}

type marker struct{}

// Parser is safe for concurrent use; Parse has no side effects.
type Parser struct {
	corrector Corrector

	operations    []term[domain.Operation]
	propertyTypes []term[domain.PropertyType]
	districts     []term[string]
	bedrooms      []term[marker]
	bathrooms     []term[marker]
	prices        []term[vocab.PriceBound]
	rangeOpeners  []term[marker]
	rangeSeps     []term[marker]
	currency      []term[marker]
	amenities     []term[string]
	rentalModes   []term[string]

	numberWords map[string]int
	multipliers map[string]float64
}

// New compiles tables into a parser.
func New(tables vocab.Tables, opts ...Option) (*Parser, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	p := &Parser{
		numberWords: make(map[string]int, len(tables.NumberWords)),
		multipliers: make(map[string]float64, len(tables.Multipliers)),
	}
	for _, opt := range opts {
		opt(p)
	}

	order := 0
	for _, entry := range tables.Operations {
		p.operations = append(p.operations, compileTerms(entry.Phrases, entry.Operation, &order)...)
	}
	for _, entry := range tables.PropertyTypes {
		p.propertyTypes = append(p.propertyTypes, compileTerms(entry.Phrases, entry.Type, &order)...)
	}
	longestFirst(p.propertyTypes)

	for _, district := range tables.Districts {
		names := append([]string{district.Name}, district.Aliases...)
		p.districts = append(p.districts, compileTerms(names, district.Name, &order)...)
	}

	p.bedrooms = compileTerms(tables.BedroomKeywords, marker{}, &order)
	p.bathrooms = compileTerms(tables.BathroomKeywords, marker{}, &order)

	for _, pattern := range tables.PricePatterns {
		p.prices = append(p.prices, compileTerms([]string{pattern.Prefix}, pattern.Bound, &order)...)
	}
	longestFirst(p.prices)
	p.rangeOpeners = compileTerms(tables.RangeOpeners, marker{}, &order)
	p.rangeSeps = compileTerms(tables.RangeSeparators, marker{}, &order)
	p.currency = compileTerms(tables.CurrencyWords, marker{}, &order)
	longestFirst(p.currency)

	for _, amenity := range tables.Amenities {
		p.amenities = append(p.amenities, compileTerms(amenity.Phrases, amenity.Code, &order)...)
	}
	for _, mode := range tables.RentalModes {
		p.rentalModes = append(p.rentalModes, compileTerms(mode.Phrases, mode.Mode, &order)...)
	}

	for word, value := range tables.NumberWords {
		if normalized := Normalize(word); normalized != "" {
			p.numberWords[normalized] = value
		}
	}
	for word, factor := range tables.Multipliers {
		if normalized := Normalize(word); normalized != "" {
			p.multipliers[normalized] = factor
		}
	}

	return p, nil
}

// Parse extracts search slots from transcript. An outcome with zero slots
// is Unmatched.
func (p *Parser) Parse(transcript string) domain.ParseOutcome {
	text := transcript
	if p.corrector != nil {
		if corrected, err := p.corrector.Apply(text); err == nil {
			text = corrected
		}
	}

	tokens := strings.Fields(Normalize(text))
	if len(tokens) == 0 {
		return domain.ParseOutcome{}
	}

	var q domain.ParsedQuery
	consumed := make([]bool, len(tokens))

	if match, _, ok := earliest(p.operations, tokens); ok {
		operation := match.value
		q.Operation = &operation
	}

	for _, candidate := range p.propertyTypes {
		index := candidate.find(tokens, 0)
		if index < 0 {
			continue
		}
		propertyType := candidate.value
		q.PropertyType = &propertyType
		for offset := range candidate.tokens {
			consumed[index+offset] = true
		}
		break
	}

	if match, _, ok := longestMatch(p.districts, tokens); ok {
		location := match.value
		q.Location = &location
	}

	q.Bedrooms = p.count(tokens, p.bedrooms, consumed)
	q.Bathrooms = p.count(tokens, p.bathrooms, consumed)

	p.extractPrices(tokens, &q)

	seen := map[string]bool{}
	for _, amenity := range p.amenities {
		if seen[amenity.value] || amenity.find(tokens, 0) < 0 {
			continue
		}
		seen[amenity.value] = true
		q.Amenities = append(q.Amenities, amenity.value)
	}

	if match, _, ok := earliest(p.rentalModes, tokens); ok {
		mode := match.value
		q.RentalMode = &mode
	}

	return domain.ParseOutcome{Query: q, SlotCount: q.SlotCount()}
}

func (p *Parser) count(tokens []string, keywords []term[marker], consumed []bool) *int {
	for index := range tokens {
		if consumed[index] {
			continue
		}
		keyword, ok := matchAt(keywords, tokens, index)
		if !ok {
			continue
		}
		if value, ok := p.countNear(tokens, index, len(keyword.tokens)); ok {
			return &value
		}
	}
	return nil
}

func (p *Parser) countNear(tokens []string, index int, width int) (int, bool) {
	for back := 1; back <= countWindow && index-back >= 0; back++ {
		if p.isCountKeyword(tokens, index-back) {
			break
		}
		// A number right after another keyword belongs to that keyword.
		if back > 1 && p.isCountKeyword(tokens, index-back-1) {
			break
		}
		if value, ok := p.parseCount(tokens[index-back]); ok {
			return value, true
		}
	}

	next := index + width
	if next < len(tokens) && !p.isCountKeyword(tokens, next+1) {
		if value, ok := p.parseCount(tokens[next]); ok {
			return value, true
		}
	}
	return 0, false
}

func (p *Parser) parseCount(token string) (int, bool) {
	if value, ok := p.numberWords[token]; ok {
		return value, true
	}
	if !isDigits(token) {
		return 0, false
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (p *Parser) isCountKeyword(tokens []string, index int) bool {
	if _, ok := matchAt(p.bedrooms, tokens, index); ok {
		return true
	}
	_, ok := matchAt(p.bathrooms, tokens, index)
	return ok
}

func isDigits(token string) bool {
	if token == "" {
		return false
	}
	for _, char := range token {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}
