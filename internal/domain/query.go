package domain

// Operation is the listing transaction type.
type Operation string

const (
	OperationRent     Operation = "rent"
	OperationSale     Operation = "sale"
	OperationTempRent Operation = "temp_rent"
)

// PropertyType is the listing category.
type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeRoom       PropertyType = "room"
	PropertyTypeOffice     PropertyType = "office"
	PropertyTypeLand       PropertyType = "land"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeStudio     PropertyType = "studio"
)

// ParsedQuery is the structured filter set extracted from one utterance.
// Unset slots are nil; Amenities is nil when no amenity was recognized.
type ParsedQuery struct {
	Operation    *Operation    `json:"operation,omitempty"`
	PropertyType *PropertyType `json:"propertyType,omitempty"`
	Location     *string       `json:"location,omitempty"`
	MinPrice     *float64      `json:"minPrice,omitempty"`
	MaxPrice     *float64      `json:"maxPrice,omitempty"`
	Bedrooms     *int          `json:"bedrooms,omitempty"`
	Bathrooms    *int          `json:"bathrooms,omitempty"`
	RentalMode   *string       `json:"rentalMode,omitempty"`
	Amenities    []string      `json:"amenities,omitempty"`
}

// SlotCount returns the number of populated slots.
func (q ParsedQuery) SlotCount() int {
	count := 0
	for _, set := range []bool{
		q.Operation != nil,
		q.PropertyType != nil,
		q.Location != nil,
		q.MinPrice != nil,
		q.MaxPrice != nil,
		q.Bedrooms != nil,
		q.Bathrooms != nil,
		q.RentalMode != nil,
		len(q.Amenities) > 0,
	} {
		if set {
			count++
		}
	}
	return count
}

// ParseOutcome is either Matched (SlotCount > 0) or Unmatched.
type ParseOutcome struct {
	Query     ParsedQuery `json:"query"`
	SlotCount int         `json:"slotCount"`
}

// Matched reports whether at least one slot was extracted.
func (o ParseOutcome) Matched() bool {
	return o.SlotCount > 0
}
