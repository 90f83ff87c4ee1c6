// Package listing builds normalized records from search-result markup.
package listing

import "github.com/Sternrassler/carsearch/pkg/extract"

// Record is one parsed search result. Pointer fields are null when the
// listing did not carry the value.
type Record struct {
	ModelName        string  `json:"model_name"`
	ModelInfo        string  `json:"model_info"`
	Doors            *int    `json:"doors"`
	ValueIndicator   *string `json:"value_indicator"`
	WriteOffCategory *string `json:"write_off_category"`
	ID               string  `json:"id"`
	Link             string  `json:"link"`
	Price            int     `json:"price"`

	extract.KeySpecs

	Seller        string   `json:"seller"`
	Location      string   `json:"location"`
	Distance      *int     `json:"distance"`
	SellerRating  *float64 `json:"seller_rating"`
	SellerReviews *int     `json:"seller_reviews"`
}

// Field is a named record value. Value is nil for a null field.
type Field struct {
	Name  string
	Value any
}

// Fields returns the record's values in stable column order.
func (r Record) Fields() []Field {
	fields := []Field{
		{"model_name", r.ModelName},
		{"model_info", r.ModelInfo},
		{"doors", deref(r.Doors)},
		{"value_indicator", deref(r.ValueIndicator)},
		{"write_off_category", deref(r.WriteOffCategory)},
		{"id", r.ID},
		{"link", r.Link},
		{"price", r.Price},
	}

	ks := r.KeySpecs
	fields = append(fields,
		Field{"year", deref(ks.Year)},
		Field{"registration", deref(ks.Registration)},
		Field{"mileage", ks.Mileage},
		Field{"engine", deref(ks.Engine)},
		Field{"bhp", deref(ks.BHP)},
		Field{"transmission", deref(ks.Transmission)},
		Field{"owners", deref(ks.Owners)},
		Field{"fuel", deref(ks.Fuel)},
		Field{"body", deref(ks.Body)},
		Field{"ulez", ks.Ulez},
	)

	return append(fields,
		Field{"seller", r.Seller},
		Field{"location", r.Location},
		Field{"distance", deref(r.Distance)},
		Field{"seller_rating", deref(r.SellerRating)},
		Field{"seller_reviews", deref(r.SellerReviews)},
	)
}

// deref keeps a nil pointer from turning into a non-nil interface.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
