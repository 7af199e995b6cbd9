// Package query encodes parsed search slots into the canonical query string
// consumed by the listings search service.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"vozbusca/internal/domain"
)

// Keys of the canonical query string, in emission order.
const (
	KeyAmenities    = "amenities"
	KeyBathrooms    = "bathrooms"
	KeyBedrooms     = "bedrooms"
	KeyLocation     = "location"
	KeyMaxPrice     = "maxPrice"
	KeyMinPrice     = "minPrice"
	KeyOperation    = "operation"
	KeyPropertyType = "propertyType"
	KeyRentalMode   = "rentalMode"
)

// Codec implements ports.QueryEncoder.
type Codec struct{}

func (Codec) Encode(q domain.ParsedQuery) string {
	return Encode(q)
}

// Encode serializes the populated slots of q as sorted key=value pairs.
func Encode(q domain.ParsedQuery) string {
	pairs := make([]string, 0, 9)
	add := func(key, value string) {
		pairs = append(pairs, key+"="+url.QueryEscape(value))
	}

	if len(q.Amenities) > 0 {
		escaped := make([]string, len(q.Amenities))
		for i, amenity := range q.Amenities {
			escaped[i] = url.QueryEscape(amenity)
		}
		pairs = append(pairs, KeyAmenities+"="+strings.Join(escaped, ","))
	}
	if q.Bathrooms != nil {
		add(KeyBathrooms, strconv.Itoa(*q.Bathrooms))
	}
	if q.Bedrooms != nil {
		add(KeyBedrooms, strconv.Itoa(*q.Bedrooms))
	}
	if q.Location != nil {
		add(KeyLocation, *q.Location)
	}
	if q.MaxPrice != nil {
		add(KeyMaxPrice, formatPrice(*q.MaxPrice))
	}
	if q.MinPrice != nil {
		add(KeyMinPrice, formatPrice(*q.MinPrice))
	}
	if q.Operation != nil {
		add(KeyOperation, string(*q.Operation))
	}
	if q.PropertyType != nil {
		add(KeyPropertyType, string(*q.PropertyType))
	}
	if q.RentalMode != nil {
		add(KeyRentalMode, *q.RentalMode)
	}

	return strings.Join(pairs, "&")
}

// Decode is the inverse of Encode. Unknown keys, repeated keys and
// malformed values are rejected.
func Decode(encoded string) (domain.ParsedQuery, error) {
	var q domain.ParsedQuery
	if encoded == "" {
		return q, nil
	}

	seen := map[string]bool{}
	for _, pair := range strings.Split(encoded, "&") {
		key, raw, found := strings.Cut(pair, "=")
		if !found {
			return domain.ParsedQuery{}, fmt.Errorf("malformed pair %q", pair)
		}
		if seen[key] {
			return domain.ParsedQuery{}, fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = true

		if key == KeyAmenities {
			amenities, err := decodeList(raw)
			if err != nil {
				return domain.ParsedQuery{}, fmt.Errorf("%s: %w", key, err)
			}
			q.Amenities = amenities
			continue
		}

		value, err := url.QueryUnescape(raw)
		if err != nil {
			return domain.ParsedQuery{}, fmt.Errorf("%s: %w", key, err)
		}
		if err := assign(&q, key, value); err != nil {
			return domain.ParsedQuery{}, fmt.Errorf("%s: %w", key, err)
		}
	}

	return q, nil
}

func assign(q *domain.ParsedQuery, key string, value string) error {
	switch key {
	case KeyBathrooms:
		count, err := parseCount(value)
		if err != nil {
			return err
		}
		q.Bathrooms = &count
	case KeyBedrooms:
		count, err := parseCount(value)
		if err != nil {
			return err
		}
		q.Bedrooms = &count
	case KeyLocation:
		q.Location = &value
	case KeyMaxPrice:
		price, err := parsePrice(value)
		if err != nil {
			return err
		}
		q.MaxPrice = &price
	case KeyMinPrice:
		price, err := parsePrice(value)
		if err != nil {
			return err
		}
		q.MinPrice = &price
	case KeyOperation:
		operation := domain.Operation(value)
		q.Operation = &operation
	case KeyPropertyType:
		propertyType := domain.PropertyType(value)
		q.PropertyType = &propertyType
	case KeyRentalMode:
		q.RentalMode = &value
	default:
		return fmt.Errorf("unknown key")
	}
	return nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty list")
	}
	parts := strings.Split(raw, ",")
	out := make([]string, len(parts))
	for i, part := range parts {
		value, err := url.QueryUnescape(part)
		if err != nil {
			return nil, err
		}
		out[i] = value
	}
	return out, nil
}

func parseCount(value string) (int, error) {
	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", value)
	}
	if count < 0 {
		return 0, fmt.Errorf("negative count %d", count)
	}
	return count, nil
}

// parsePrice accepts finite decimal prices only.
func parsePrice(value string) (float64, error) {
	if strings.ContainsAny(value, "xX_") {
		return 0, fmt.Errorf("invalid price %q", value)
	}
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", value)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("non-finite price %q", value)
	}
	return price, nil
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
