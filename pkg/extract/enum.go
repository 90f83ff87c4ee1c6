package extract

import "strings"

// Token pairs the literal looked for in the text with the canonical value
// reported when it is found.
type Token struct {
	Match string
	Value string
}

// Enum is an ordered token list. Lookup returns the value of the first token
// in list order whose literal occurs in the text, so list order breaks ties
// when a malformed string carries more than one token.
type Enum []Token

// Lookup returns the canonical value of the first matching token, or nil.
func (e Enum) Lookup(text string) *string {
	for _, t := range e {
		if strings.Contains(text, t.Match) {
			v := t.Value
			return &v
		}
	}
	return nil
}

// Values lists the canonical values in lookup order.
func (e Enum) Values() []string {
	out := make([]string, len(e))
	for i, t := range e {
		out[i] = t.Value
	}
	return out
}

func tokens(values ...string) Enum {
	e := make(Enum, len(values))
	for i, v := range values {
		e[i] = Token{Match: v, Value: v}
	}
	return e
}

var (
	// Transmissions recognised in key specs.
	Transmissions = tokens("Automatic", "Manual")

	// FuelTypes recognised in key specs. The plain fuels come first, so a
	// hybrid string such as "Hybrid – Petrol/Electric" reports as "Petrol".
	FuelTypes = tokens(
		"Petrol",
		"Diesel",
		"Electric",
		"Hybrid – Diesel/Electric Plug-in",
		"Hybrid – Petrol/Electric",
		"Hybrid – Petrol/Electric Plug-in",
	)

	// BodyTypes recognised in key specs.
	BodyTypes = tokens("Coupe", "Convertible", "Estate", "Hatchback", "MPV", "Pickup", "SUV", "Saloon")
)

func Transmission(text string) *string { return Transmissions.Lookup(text) }

func Fuel(text string) *string { return FuelTypes.Lookup(text) }

func Body(text string) *string { return BodyTypes.Lookup(text) }
