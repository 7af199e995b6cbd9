package vocab

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile returns the default vocabulary extended with the entries of the
// YAML file at path. An empty path or a missing file yields the defaults.
func LoadFile(path string) (Tables, error) {
	base := Default()
	if strings.TrimSpace(path) == "" {
		return base, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, nil
		}
		return Tables{}, fmt.Errorf("failed to read vocabulary file %q: %w", path, err)
	}

	var ext Tables
	if err := yaml.Unmarshal(contents, &ext); err != nil {
		return Tables{}, fmt.Errorf("failed to parse vocabulary file %q: %w", path, err)
	}
	if err := ext.Validate(); err != nil {
		return Tables{}, fmt.Errorf("invalid vocabulary file %q: %w", path, err)
	}

	return Merge(base, ext), nil
}

// Merge appends the entries of ext to base. Map entries in ext override base.
func Merge(base Tables, ext Tables) Tables {
	out := base
	out.Operations = append(append([]OperationEntry(nil), base.Operations...), ext.Operations...)
	out.PropertyTypes = append(append([]PropertyTypeEntry(nil), base.PropertyTypes...), ext.PropertyTypes...)
	out.Districts = append(append([]District(nil), base.Districts...), ext.Districts...)
	out.BedroomKeywords = append(append([]string(nil), base.BedroomKeywords...), ext.BedroomKeywords...)
	out.BathroomKeywords = append(append([]string(nil), base.BathroomKeywords...), ext.BathroomKeywords...)
	out.PricePatterns = append(append([]PricePattern(nil), base.PricePatterns...), ext.PricePatterns...)
	out.RangeOpeners = append(append([]string(nil), base.RangeOpeners...), ext.RangeOpeners...)
	out.RangeSeparators = append(append([]string(nil), base.RangeSeparators...), ext.RangeSeparators...)
	out.CurrencyWords = append(append([]string(nil), base.CurrencyWords...), ext.CurrencyWords...)
	out.Amenities = append(append([]Amenity(nil), base.Amenities...), ext.Amenities...)
	out.RentalModes = append(append([]RentalMode(nil), base.RentalModes...), ext.RentalModes...)

	out.NumberWords = make(map[string]int, len(base.NumberWords)+len(ext.NumberWords))
	for word, value := range base.NumberWords {
		out.NumberWords[word] = value
	}
	for word, value := range ext.NumberWords {
		out.NumberWords[word] = value
	}

	out.Multipliers = make(map[string]float64, len(base.Multipliers)+len(ext.Multipliers))
	for word, value := range base.Multipliers {
		out.Multipliers[word] = value
	}
	for word, value := range ext.Multipliers {
		out.Multipliers[word] = value
	}

	return out
}

// Validate rejects entries the parser could never match or would misread.
func (t Tables) Validate() error {
	for _, entry := range t.Operations {
		if entry.Operation == "" {
			return errors.New("operation entry without operation")
		}
		if err := requirePhrases("operation "+string(entry.Operation), entry.Phrases); err != nil {
			return err
		}
	}
	for _, entry := range t.PropertyTypes {
		if entry.Type == "" {
			return errors.New("property type entry without type")
		}
		if err := requirePhrases("property type "+string(entry.Type), entry.Phrases); err != nil {
			return err
		}
	}
	for _, district := range t.Districts {
		if strings.TrimSpace(district.Name) == "" {
			return errors.New("district without name")
		}
	}
	for word, value := range t.NumberWords {
		if value < 0 {
			return fmt.Errorf("number word %q must be non-negative", word)
		}
	}
	for _, pattern := range t.PricePatterns {
		if strings.TrimSpace(pattern.Prefix) == "" {
			return errors.New("price pattern without prefix")
		}
		if pattern.Bound != PriceBoundMin && pattern.Bound != PriceBoundMax {
			return fmt.Errorf("price pattern %q: unsupported bound %q", pattern.Prefix, pattern.Bound)
		}
	}
	for word, factor := range t.Multipliers {
		if factor <= 0 {
			return fmt.Errorf("multiplier %q must be positive", word)
		}
	}
	for _, amenity := range t.Amenities {
		if amenity.Code == "" {
			return errors.New("amenity without code")
		}
		if err := requirePhrases("amenity "+amenity.Code, amenity.Phrases); err != nil {
			return err
		}
	}
	for _, mode := range t.RentalModes {
		if mode.Mode == "" {
			return errors.New("rental mode without mode")
		}
		if err := requirePhrases("rental mode "+mode.Mode, mode.Phrases); err != nil {
			return err
		}
	}
	return nil
}

func requirePhrases(owner string, phrases []string) error {
	if len(phrases) == 0 {
		return fmt.Errorf("%s has no phrases", owner)
	}
	for _, phrase := range phrases {
		if strings.TrimSpace(phrase) == "" {
			return fmt.Errorf("%s has an empty phrase", owner)
		}
	}
	return nil
}
