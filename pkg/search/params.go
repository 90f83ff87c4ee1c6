package search

import (
	"net/url"
	"strconv"
)

// Query keys set by the controller.
const (
	KeyMake      = "make"
	KeyModel     = "model"
	KeyPostcode  = "postcode"
	KeyRadius    = "radius"
	KeySort      = "sort"
	KeyPage      = "page"
	KeyPriceType = "search-results-price-type"

	priceTypeTotal = "total-price"
)

// Parameters are the query parameters of a search. Any key beyond the
// named ones is passed through unchanged (e.g. min_year, include_writeoff).
type Parameters map[string]string

// NewParameters builds parameters for a make/model search around postcode.
func NewParameters(carMake, model, postcode string, radius int, extra map[string]string) Parameters {
	p := Parameters{
		KeyMake:     carMake,
		KeyModel:    model,
		KeyPostcode: postcode,
		KeyRadius:   strconv.Itoa(radius),
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

// DefaultParameters searches for a BMW 5 Series within 10 miles of SW1A 0AA.
func DefaultParameters() Parameters {
	return NewParameters("BMW", "5 SERIES", "SW1A 0AA", 10, nil)
}

// Clone returns an independent copy.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Values converts the parameters to a query.
func (p Parameters) Values() url.Values {
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}
