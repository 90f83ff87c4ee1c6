package extract

import "fmt"

// KeySpecs holds the fields derived from one listing's key-specs blob.
type KeySpecs struct {
	Year         *int     `json:"year"`
	Registration *int     `json:"registration"`
	Mileage      int      `json:"mileage"`
	Engine       *float64 `json:"engine"`
	BHP          *int     `json:"bhp"`
	Transmission *string  `json:"transmission"`
	Owners       *int     `json:"owners"`
	Fuel         *string  `json:"fuel"`
	Body         *string  `json:"body"`
	Ulez         bool     `json:"ulez"`
}

// KeySpecField binds a field name to the extractor that fills it.
type KeySpecField struct {
	Name  string
	Apply func(text string, ks *KeySpecs) error
}

// KeySpecFields is evaluated in order over the same blob. The order is the
// column order used on export.
var KeySpecFields = []KeySpecField{
	{"year", func(t string, ks *KeySpecs) error { ks.Year = Year(t); return nil }},
	{"registration", func(t string, ks *KeySpecs) error { ks.Registration = Registration(t); return nil }},
	{"mileage", func(t string, ks *KeySpecs) error {
		m, err := Mileage(t)
		ks.Mileage = m
		return err
	}},
	{"engine", func(t string, ks *KeySpecs) error { ks.Engine = EngineLitres(t); return nil }},
	{"bhp", func(t string, ks *KeySpecs) error { ks.BHP = Power(t); return nil }},
	{"transmission", func(t string, ks *KeySpecs) error { ks.Transmission = Transmission(t); return nil }},
	{"owners", func(t string, ks *KeySpecs) error { ks.Owners = Owners(t); return nil }},
	{"fuel", func(t string, ks *KeySpecs) error { ks.Fuel = Fuel(t); return nil }},
	{"body", func(t string, ks *KeySpecs) error { ks.Body = Body(t); return nil }},
	{"ulez", func(t string, ks *KeySpecs) error { ks.Ulez = Ulez(t); return nil }},
}

// ParseKeySpecs runs every key-spec extractor over text.
func ParseKeySpecs(text string) (KeySpecs, error) {
	var ks KeySpecs
	for _, f := range KeySpecFields {
		if err := f.Apply(text, &ks); err != nil {
			return ks, fmt.Errorf("key spec %s: %w", f.Name, err)
		}
	}
	return ks, nil
}
