// Package vocab holds the Peruvian Spanish vocabulary used to extract
// property-search slots: the district gazetteer, synonym tables, number
// words and price phrases. Phrases are written naturally (accents allowed);
// the intent package normalizes them when compiling a parser.
package vocab

import "vozbusca/internal/domain"

// PriceBound tells which side of a price range a phrase sets.
type PriceBound string

const (
	PriceBoundMin PriceBound = "min"
	PriceBoundMax PriceBound = "max"
)

type OperationEntry struct {
	Operation domain.Operation `yaml:"operation"`
	Phrases   []string         `yaml:"phrases"`
}

type PropertyTypeEntry struct {
	Type    domain.PropertyType `yaml:"type"`
	Phrases []string            `yaml:"phrases"`
}

// District is a gazetteer entry. Name is the display form returned as the
// location slot; Aliases are alternative spoken forms.
type District struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

type PricePattern struct {
	Prefix string     `yaml:"prefix"`
	Bound  PriceBound `yaml:"bound"`
}

type Amenity struct {
	Code    string   `yaml:"code"`
	Phrases []string `yaml:"phrases"`
}

type RentalMode struct {
	Mode    string   `yaml:"mode"`
	Phrases []string `yaml:"phrases"`
}

// Tables is the complete vocabulary consumed by the intent parser.
type Tables struct {
	Operations       []OperationEntry    `yaml:"operations,omitempty"`
	PropertyTypes    []PropertyTypeEntry `yaml:"propertyTypes,omitempty"`
	Districts        []District          `yaml:"districts,omitempty"`
	NumberWords      map[string]int      `yaml:"numberWords,omitempty"`
	BedroomKeywords  []string            `yaml:"bedroomKeywords,omitempty"`
	BathroomKeywords []string            `yaml:"bathroomKeywords,omitempty"`
	PricePatterns    []PricePattern      `yaml:"pricePatterns,omitempty"`
	RangeOpeners     []string            `yaml:"rangeOpeners,omitempty"`
	RangeSeparators  []string            `yaml:"rangeSeparators,omitempty"`
	Multipliers      map[string]float64  `yaml:"multipliers,omitempty"`
	CurrencyWords    []string            `yaml:"currencyWords,omitempty"`
	Amenities        []Amenity           `yaml:"amenities,omitempty"`
	RentalModes      []RentalMode        `yaml:"rentalModes,omitempty"`
}

// Default returns the built-in vocabulary. Each call returns a fresh copy.
func Default() Tables {
	return Tables{
		Operations: []OperationEntry{
			{Operation: domain.OperationRent, Phrases: []string{"alquiler", "alquilar", "alquilo", "alquila", "renta", "rentar", "rento"}},
			{Operation: domain.OperationSale, Phrases: []string{"venta", "comprar", "compro", "compra", "vender", "vendo"}},
			{Operation: domain.OperationTempRent, Phrases: []string{"temporal", "airbnb", "vacacional", "alquiler temporal", "alquiler vacacional"}},
		},
		PropertyTypes: []PropertyTypeEntry{
			{Type: domain.PropertyTypeApartment, Phrases: []string{"departamento", "departamentos", "depa", "depas", "dpto", "flat"}},
			{Type: domain.PropertyTypeHouse, Phrases: []string{"casa", "casas"}},
			{Type: domain.PropertyTypeRoom, Phrases: []string{"cuarto", "cuartos", "habitación suelta", "room"}},
			{Type: domain.PropertyTypeOffice, Phrases: []string{"oficina", "oficinas"}},
			{Type: domain.PropertyTypeLand, Phrases: []string{"terreno", "terrenos", "lote"}},
			{Type: domain.PropertyTypeCommercial, Phrases: []string{"local", "local comercial", "locales"}},
			{Type: domain.PropertyTypeStudio, Phrases: []string{"estudio", "studio", "monoambiente"}},
		},
		Districts: limaDistricts(),
		NumberWords: map[string]int{
			"cero": 0, "un": 1, "uno": 1, "una": 1, "dos": 2, "tres": 3,
			"cuatro": 4, "cinco": 5, "seis": 6, "siete": 7, "ocho": 8,
			"nueve": 9, "diez": 10,
		},
		BedroomKeywords:  []string{"habitación", "habitaciones", "dormitorio", "dormitorios"},
		BathroomKeywords: []string{"baño", "baños"},
		PricePatterns: []PricePattern{
			{Prefix: "menos de", Bound: PriceBoundMax},
			{Prefix: "hasta", Bound: PriceBoundMax},
			{Prefix: "máximo", Bound: PriceBoundMax},
			{Prefix: "como máximo", Bound: PriceBoundMax},
			{Prefix: "no más de", Bound: PriceBoundMax},
			{Prefix: "más de", Bound: PriceBoundMin},
			{Prefix: "desde", Bound: PriceBoundMin},
			{Prefix: "mínimo", Bound: PriceBoundMin},
			{Prefix: "a partir de", Bound: PriceBoundMin},
		},
		RangeOpeners:    []string{"entre"},
		RangeSeparators: []string{"y", "a"},
		Multipliers: map[string]float64{
			"mil": 1e3, "k": 1e3,
			"millón": 1e6, "millon": 1e6, "millones": 1e6,
		},
		CurrencyWords: []string{"soles", "sol", "s", "lucas", "luca", "dólares", "dolares", "usd", "dólar"},
		Amenities: []Amenity{
			{Code: "pool", Phrases: []string{"piscina", "alberca"}},
			{Code: "gym", Phrases: []string{"gimnasio", "gym"}},
			{Code: "parking", Phrases: []string{"cochera", "estacionamiento", "parqueo"}},
			{Code: "furnished", Phrases: []string{"amoblado", "amoblada", "amueblado", "amueblada"}},
			{Code: "pets", Phrases: []string{"mascotas", "pet friendly"}},
			{Code: "terrace", Phrases: []string{"terraza"}},
			{Code: "garden", Phrases: []string{"jardín"}},
			{Code: "elevator", Phrases: []string{"ascensor"}},
			{Code: "balcony", Phrases: []string{"balcón"}},
			{Code: "ocean_view", Phrases: []string{"vista al mar"}},
			{Code: "security", Phrases: []string{"seguridad", "vigilancia"}},
		},
		RentalModes: []RentalMode{
			{Mode: "daily", Phrases: []string{"por noche", "por día", "diario", "por días"}},
			{Mode: "weekly", Phrases: []string{"por semana", "semanal"}},
			{Mode: "monthly", Phrases: []string{"por mes", "mensual", "al mes"}},
			{Mode: "yearly", Phrases: []string{"por año", "anual"}},
		},
	}
}

func limaDistricts() []District {
	return []District{
		{Name: "Miraflores"},
		{Name: "San Isidro"},
		{Name: "Barranco"},
		{Name: "Santiago de Surco", Aliases: []string{"Surco"}},
		{Name: "San Borja"},
		{Name: "La Molina"},
		{Name: "Jesús María"},
		{Name: "Lince"},
		{Name: "Magdalena del Mar", Aliases: []string{"Magdalena"}},
		{Name: "Pueblo Libre"},
		{Name: "San Miguel"},
		{Name: "Surquillo"},
		{Name: "Chorrillos"},
		{Name: "Breña"},
		{Name: "Cercado de Lima", Aliases: []string{"Lima Cercado"}},
		{Name: "Lima"},
		{Name: "La Victoria"},
		{Name: "Rímac"},
		{Name: "San Luis"},
		{Name: "San Juan de Lurigancho"},
		{Name: "San Juan de Miraflores"},
		{Name: "San Martín de Porres"},
		{Name: "Los Olivos"},
		{Name: "Independencia"},
		{Name: "Comas"},
		{Name: "Carabayllo"},
		{Name: "Puente Piedra"},
		{Name: "Ancón"},
		{Name: "Santa Rosa"},
		{Name: "Ate", Aliases: []string{"Ate Vitarte"}},
		{Name: "Santa Anita"},
		{Name: "El Agustino"},
		{Name: "Chaclacayo"},
		{Name: "Lurigancho", Aliases: []string{"Chosica"}},
		{Name: "Cieneguilla"},
		{Name: "Villa El Salvador"},
		{Name: "Villa María del Triunfo"},
		{Name: "Lurín"},
		{Name: "Pachacámac"},
		{Name: "Punta Hermosa"},
		{Name: "Punta Negra"},
		{Name: "San Bartolo"},
		{Name: "Santa María del Mar"},
		{Name: "Pucusana"},
		{Name: "Callao"},
		{Name: "Bellavista"},
		{Name: "La Perla"},
		{Name: "La Punta"},
		{Name: "Carmen de la Legua"},
		{Name: "Ventanilla"},
		{Name: "Mi Perú"},
	}
}
