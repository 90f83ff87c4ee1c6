package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumLookup(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) *string
		text string
		want *string
	}{
		{"fuel diesel", Fuel, "Diesel, Automatic, 201BHP", strPtr("Diesel")},
		{"fuel electric", Fuel, "Electric 300BHP", strPtr("Electric")},
		{"fuel hybrid reports plain fuel", Fuel, "Hybrid – Petrol/Electric", strPtr("Petrol")},
		{"fuel missing", Fuel, "2.0L Manual", nil},
		{"body saloon", Body, sampleSpecs, strPtr("Saloon")},
		{"body suv", Body, "SUV 4x4", strPtr("SUV")},
		{"body missing", Body, "Diesel, Automatic, 201BHP", nil},
		{"transmission automatic", Transmission, sampleSpecs, strPtr("Automatic")},
		{"transmission manual", Transmission, "Manual 6 speed", strPtr("Manual")},
		{"transmission tie goes to list order", Transmission, "Manual or Automatic", strPtr("Automatic")},
		{"transmission missing", Transmission, "CVT", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.text))
		})
	}
}

func TestEnumCustomCanonicalValue(t *testing.T) {
	e := Enum{{Match: "Auto", Value: "Automatic"}, {Match: "Man", Value: "Manual"}}
	assert.Equal(t, strPtr("Automatic"), e.Lookup("7-speed Auto"))
	assert.Equal(t, []string{"Automatic", "Manual"}, e.Values())
}

func TestParseKeySpecs(t *testing.T) {
	ks, err := ParseKeySpecs(sampleSpecs)
	require.NoError(t, err)

	assert.Equal(t, KeySpecs{
		Year:         intPtr(2018),
		Registration: intPtr(68),
		Mileage:      45210,
		Engine:       floatPtr(2.0),
		BHP:          intPtr(190),
		Transmission: strPtr("Automatic"),
		Owners:       intPtr(1),
		Fuel:         strPtr("Diesel"),
		Body:         strPtr("Saloon"),
		Ulez:         true,
	}, ks)
}

func TestParseKeySpecs_OptionalFieldsNull(t *testing.T) {
	ks, err := ParseKeySpecs(" 8,000 miles ")
	require.NoError(t, err)

	assert.Equal(t, 8000, ks.Mileage)
	assert.Nil(t, ks.Year)
	assert.Nil(t, ks.Engine)
	assert.Nil(t, ks.Fuel)
	assert.False(t, ks.Ulez)
}

func TestParseKeySpecs_MissingMileage(t *testing.T) {
	_, err := ParseKeySpecs("2018 Saloon 2.0L Diesel")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMileageMissing))
	assert.Contains(t, err.Error(), "mileage")
}

func TestKeySpecFieldOrder(t *testing.T) {
	names := make([]string, len(KeySpecFields))
	for i, f := range KeySpecFields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{
		"year", "registration", "mileage", "engine", "bhp",
		"transmission", "owners", "fuel", "body", "ulez",
	}, names)
}
